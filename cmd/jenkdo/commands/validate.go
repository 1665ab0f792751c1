// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/terminal"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type validateParams struct {
	connectionParams
	cli.JSONOutput
}

func validateCommand(env *Environment) *cli.Command {
	var params validateParams
	return &cli.Command{
		Name:    "validate",
		Summary: "Check a declarative pipeline's syntax on the server",
		Description: `Send a pipeline file to the server's declarative validator and print
each syntax error with its position. Exits 3 if the pipeline is invalid.`,
		Usage: "jenkdo validate <file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Logger: env.commandLogger("validate", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path, err := oneArgument(args, "one pipeline file")
			if err != nil {
				return err
			}
			script, err := readPipeline(path)
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				result, err := workflow.NewValidator(s.workflowConfig(nil)).Validate(ctx, script)
				if err != nil {
					return err
				}
				s.status.Finish()
				if done, err := params.EmitJSON(env.Stdout, result); done {
					if err == nil && !result.Valid {
						return &cli.ExitError{Code: 3}
					}
					return err
				}
				if result.Valid {
					return nil
				}
				fmt.Fprint(env.Stdout, terminal.RenderDiagnostics(script, result.Diagnostics, env.color(env.Stdout, params.NoColor)))
				return &cli.ExitError{Code: 3}
			})
		},
	}
}
