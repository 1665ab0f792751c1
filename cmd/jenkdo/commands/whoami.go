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

type whoamiParams struct {
	connectionParams
	cli.JSONOutput
}

type whoamiResult struct {
	Server   string `json:"server"`
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Source   string `json:"config_source,omitempty"`
}

func whoamiCommand(env *Environment) *cli.Command {
	var params whoamiParams
	return &cli.Command{
		Name:    "whoami",
		Summary: "Check the configured credentials",
		Description: `Authenticate against the server and print the user it sees. Exits 10
if the credentials are rejected and 2 if they are incomplete.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("whoami", &params)
		},
		Logger: env.commandLogger("whoami", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("whoami takes no arguments")
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				user, err := s.client.WhoAmI(ctx)
				if err != nil {
					return workflow.Classify(workflow.StageConfig, "", s.client.BaseURL(), err)
				}
				result := whoamiResult{
					Server:   s.client.BaseURL(),
					ID:       user.ID,
					FullName: user.FullName,
					Source:   s.config.Source,
				}
				if done, err := params.EmitJSON(env.Stdout, result); done {
					return err
				}
				fmt.Fprintf(env.Stdout, "%s (%s) on %s\n", result.ID, result.FullName, result.Server)
				return nil
			})
		},
	}
}
