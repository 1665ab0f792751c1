// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type scriptParams struct {
	connectionParams
}

func scriptCommand(env *Environment) *cli.Command {
	var params scriptParams
	return &cli.Command{
		Name:    "script",
		Summary: "Run a Groovy script on the script console",
		Description: `Execute a Groovy file on the server's script console and print what it
printed. This needs the Overall/Administer permission.`,
		Usage: "jenkdo script <file> [flags]",
		Examples: []cli.Example{
			{Description: "List the agents", Command: "jenkdo script nodes.groovy"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("script", &params)
		},
		Logger: env.commandLogger("script", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path, err := oneArgument(args, "one script file")
			if err != nil {
				return err
			}
			script, err := readPipeline(path)
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				output, err := s.client.RunScript(ctx, script)
				if err != nil {
					return workflow.Classify(workflow.StageScript, "", s.client.BaseURL(), err)
				}
				if output != "" && !strings.HasSuffix(output, "\n") {
					output += "\n"
				}
				_, err = io.WriteString(env.Stdout, output)
				return err
			})
		},
	}
}
