// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/jobconfig"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

// parameterParams collect build parameters.
type parameterParams struct {
	Params     []string `flag:"param,p" desc:"build parameter NAME=VALUE (repeatable)"`
	ParamsFile string   `flag:"params-file" desc:"JSON (comments allowed) object of build parameters; --param overrides it"`
}

func (p parameterParams) load() (map[string]string, error) {
	var fromFile map[string]string
	if p.ParamsFile != "" {
		loaded, err := jobconfig.LoadParamsFile(p.ParamsFile)
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		fromFile = loaded
	}
	fromFlags, err := jobconfig.ParseParams(p.Params)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return jobconfig.MergeParams(fromFile, fromFlags), nil
}

// definitionParams describe the job a pipeline file is published as.
type definitionParams struct {
	parameterParams
	Job             string `flag:"job" desc:"job name (default: derived from the file name)"`
	Template        string `flag:"template" desc:"config.xml template file (default: built-in pipeline template)"`
	DescriptionFile string `flag:"description-file" desc:"markdown file rendered into the job description"`
}

// definition reads the pipeline at path and builds the job to publish.
func (p definitionParams) definition(s *session, path string) (workflow.JobDefinition, error) {
	script, err := readPipeline(path)
	if err != nil {
		return workflow.JobDefinition{}, err
	}

	name := p.Job
	if name == "" {
		name = jobconfig.NameFromPath(path)
	}
	definition := workflow.JobDefinition{
		Name:   s.job(name),
		Script: script,
	}

	if definition.Parameters, err = p.load(); err != nil {
		return workflow.JobDefinition{}, err
	}
	if p.Template != "" {
		if definition.Template, err = jobconfig.LoadTemplate(p.Template); err != nil {
			return workflow.JobDefinition{}, cli.Validation("%w", err)
		}
	}
	if p.DescriptionFile != "" {
		if definition.Description, err = jobconfig.LoadDescription(p.DescriptionFile); err != nil {
			return workflow.JobDefinition{}, cli.Validation("%w", err)
		}
	}
	return definition, nil
}

// readPipeline reads a pipeline or script file.
func readPipeline(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", cli.NotFound("%s: no such file", path)
	}
	if err != nil {
		return "", cli.Internal("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", cli.Validation("%s is empty", path)
	}
	return string(data), nil
}

// oneArgument checks args holds exactly one value and returns it.
func oneArgument(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", cli.Validation("expected %s, got %d arguments", what, len(args))
	}
	return args[0], nil
}
