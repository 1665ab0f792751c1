// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type stopParams struct {
	connectionParams
	pollParams

	NoWait bool `flag:"no-wait" desc:"return once the stop request is sent"`
}

func stopCommand(env *Environment) *cli.Command {
	var params stopParams
	return &cli.Command{
		Name:    "stop",
		Summary: "Stop a build, or cancel it while queued",
		Description: `Abort a build. A build still waiting in the queue is removed from it;
a running build is sent a stop request and, unless --no-wait is given,
followed until it has stopped. Arguments are resolved as for "jenkdo logs".`,
		Usage: "jenkdo stop [job] [number] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("stop", &params)
		},
		Logger: env.commandLogger("stop", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return env.withSession(params.connectionParams, params.pollParams, logger, func(s *session) error {
				handle, err := s.target(ctx, args)
				if err != nil {
					return err
				}
				return workflow.NewRunner(s.workflowConfig(nil)).Abort(ctx, handle, !params.NoWait)
			})
		},
	}
}
