// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lithammer/dedent"
	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/runstate"
	"github.com/jenkdo/jenkdo/lib/terminal"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type runParams struct {
	connectionParams
	pollParams
	consoleParams
	definitionParams
	cli.JSONOutput

	SkipValidate bool `flag:"skip-validate" desc:"publish without asking the server to validate the pipeline"`
	Yes          bool `flag:"yes,y" desc:"do not ask for confirmation before publishing"`
	Force        bool `flag:"force,f" desc:"delete an existing job and create it again"`
	Cleanup      bool `flag:"cleanup" desc:"delete the job when the build ends, however it ends"`
}

func runCommand(env *Environment) *cli.Command {
	var params runParams
	return &cli.Command{
		Name:    "run",
		Summary: "Validate, publish, build and follow a pipeline file",
		Description: dedent.Dedent(`
			Run a pipeline file as a build.

			The file is sent to the server's declarative validator, published
			as a pipeline job (created if absent, its definition replaced
			otherwise), and built. The build's console is streamed until it
			finishes. The exit status reports how far the run got and how the
			build ended.

			Interrupting (Ctrl+C) cancels the queued build or stops the running
			one before exiting.`),
		Usage: "jenkdo run <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Run a pipeline, answering the confirmation prompt",
				Command:     "jenkdo run smoke-test.groovy",
			},
			{
				Description: "Run unattended with a parameter and delete the job afterwards",
				Command:     "jenkdo run smoke-test.groovy -y --param NAME=alice --cleanup",
			},
			{
				Description: "Publish into a folder and keep a compressed copy of the console",
				Command:     "jenkdo run Jenkinsfile --folder debug --archive build.log.zst",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Logger: env.commandLogger("run", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path, err := oneArgument(args, "one pipeline file")
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, params.pollParams, logger, func(s *session) error {
				return runPipeline(ctx, s, path, &params)
			})
		},
	}
}

func runPipeline(ctx context.Context, s *session, path string, params *runParams) error {
	definition, err := params.definition(s, path)
	if err != nil {
		return err
	}
	logger := s.logger.With("job", definition.Name)

	// With --json, stdout carries the result document alone.
	destination := s.env.Stdout
	if params.OutputJSON {
		destination = s.env.Stderr
	}
	sink, err := newConsoleSink(destination, params.consoleParams, params.NoColor)
	if err != nil {
		return err
	}

	config := s.workflowConfig(sink)
	config.Force = params.Force
	config.Logger = logger
	runner := workflow.NewRunner(config)

	request := workflow.Request{
		Definition: definition,
		Validate:   !params.SkipValidate,
		Cleanup:    params.Cleanup,
		OnTriggered: func(handle workflow.BuildHandle, outcome workflow.PublishOutcome) {
			s.saveRun(handle, outcome.Digest)
		},
	}
	if !params.Yes {
		prompter := &cli.Prompter{In: s.env.Stdin, Out: s.env.Stderr}
		request.Confirm = func(ctx context.Context, _ *workflow.ValidationResult) (bool, error) {
			s.status.Finish()
			return prompter.Confirm(ctx, "> Press Enter to continue or Ctrl+C to exit ")
		}
	}

	result, runErr := runner.Run(ctx, request)
	if closeErr := sink.Close(); closeErr != nil {
		logger.Warn("finishing console output", "error", closeErr)
	}
	s.status.Finish()

	if result != nil && result.Handle != nil && result.Handle.Started() {
		s.saveRun(*result.Handle, digestOf(result))
	}
	if invalid := diagnosticsOf(runErr); invalid != nil {
		fmt.Fprint(s.env.Stderr, terminal.RenderDiagnostics(definition.Script, invalid, s.env.color(s.env.Stderr, params.NoColor)))
	}

	if done, err := params.EmitJSON(s.env.Stdout, result); done && err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	logger.Debug("run finished", "number", result.Handle.Number, "status", result.Handle.Status)
	return nil
}

// saveRun records handle as the last run. Failing to record is not a
// reason to fail the run.
func (s *session) saveRun(handle workflow.BuildHandle, digest string) {
	path := s.env.statePath()
	if path == "" {
		return
	}
	record := runstate.Record{
		Server:    s.client.BaseURL(),
		Job:       handle.Job,
		QueueID:   handle.QueueID,
		Number:    handle.Number,
		URL:       handle.URL,
		Digest:    digest,
		StartedAt: s.env.Clock.Now(),
	}
	if err := runstate.Save(path, record); err != nil {
		s.logger.Warn("recording last run", "path", path, "error", err)
		return
	}
	s.logger.Debug("recorded last run", "path", path, "queue_id", handle.QueueID, "number", handle.Number)
}

func digestOf(result *workflow.Result) string {
	if result.Publish == nil {
		return ""
	}
	return result.Publish.Digest
}

// diagnosticsOf returns the findings of an invalid pipeline error.
func diagnosticsOf(err error) []workflow.Diagnostic {
	var workflowError *workflow.Error
	if !errors.As(err, &workflowError) || workflowError.Kind != workflow.KindInvalid {
		return nil
	}
	if len(workflowError.Diagnostics) == 0 {
		return []workflow.Diagnostic{{Message: "the validator reported no details"}}
	}
	return workflowError.Diagnostics
}
