// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type triggerParams struct {
	connectionParams
	parameterParams
	cli.JSONOutput
}

func triggerCommand(env *Environment) *cli.Command {
	var params triggerParams
	return &cli.Command{
		Name:    "trigger",
		Summary: "Start a build of an existing job",
		Description: `Request a build of a job and wait until the server assigns it a build
number. The build is recorded as the last run, so "jenkdo logs" and
"jenkdo stop" without arguments act on it.`,
		Usage: "jenkdo trigger <job> [flags]",
		Examples: []cli.Example{
			{
				Description: "Build a job in a folder with a parameter, then follow it",
				Command:     "jenkdo trigger debug/smoke-test --param NAME=alice && jenkdo logs",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("trigger", &params)
		},
		Logger: env.commandLogger("trigger", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			name, err := oneArgument(args, "one job name")
			if err != nil {
				return err
			}
			buildParams, err := params.load()
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				config := s.workflowConfig(nil)
				handle, err := workflow.NewBuildTrigger(config).Trigger(ctx, s.job(name), buildParams)
				if handle != nil {
					s.saveRun(*handle, "")
				}
				if workflow.KindOf(err) == workflow.KindInterrupted && handle != nil {
					abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), workflow.DefaultAbortTimeout)
					defer cancel()
					if abortErr := workflow.NewRunner(config).Abort(abortCtx, handle, false); abortErr != nil {
						logger.Warn("cancelling queued build", "error", abortErr)
					}
				}
				if err != nil {
					return err
				}
				s.status.Finish()
				if done, err := params.EmitJSON(env.Stdout, handle); done {
					return err
				}
				fmt.Fprintln(env.Stdout, handle.URL)
				return nil
			})
		},
	}
}
