// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type publishParams struct {
	connectionParams
	definitionParams
	cli.JSONOutput

	Force bool `flag:"force,f" desc:"delete an existing job and create it again"`
}

// publishResult is the --json document of publish.
type publishResult struct {
	Job string `json:"job"`
	URL string `json:"url"`
	workflow.PublishOutcome
}

func publishCommand(env *Environment) *cli.Command {
	var params publishParams
	return &cli.Command{
		Name:    "publish",
		Summary: "Create or update a pipeline job from a file",
		Description: `Publish a pipeline file as a pipeline job without building it. An
absent job is created; an existing pipeline job has its definition
replaced. A job of another type is left alone (exit 4) unless --force
is given.`,
		Usage: "jenkdo publish <file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("publish", &params)
		},
		Logger: env.commandLogger("publish", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path, err := oneArgument(args, "one pipeline file")
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				definition, err := params.definition(s, path)
				if err != nil {
					return err
				}
				config := s.workflowConfig(nil)
				config.Force = params.Force
				outcome, err := workflow.NewPublisher(config).Publish(ctx, definition)
				if err != nil {
					return err
				}
				s.status.Finish()

				result := publishResult{
					Job:            definition.Name,
					URL:            s.client.BaseURL() + jenkins.JobPath(definition.Name) + "/",
					PublishOutcome: outcome,
				}
				if done, err := params.EmitJSON(env.Stdout, result); done {
					return err
				}
				fmt.Fprintln(env.Stdout, result.URL)
				return nil
			})
		},
	}
}
