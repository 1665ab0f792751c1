// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/console"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

type logsParams struct {
	connectionParams
	pollParams
	consoleParams

	Replay string `flag:"replay" desc:"print a console archive written by --archive instead of asking the server"`
}

func logsCommand(env *Environment) *cli.Command {
	var params logsParams
	return &cli.Command{
		Name:    "logs",
		Summary: "Follow the console of a build",
		Description: `Stream a build's console until the build finishes. Without arguments
the last build started by "jenkdo run" or "jenkdo trigger" is used;
with a job name alone, the job's most recent build. A build still in
the queue is waited for. The exit status reports how the build ended,
as for "jenkdo run".`,
		Usage: "jenkdo logs [job] [number] [flags]",
		Examples: []cli.Example{
			{Description: "Follow the last run", Command: "jenkdo logs"},
			{Description: "Show build 42, keeping [Pipeline] lines", Command: "jenkdo logs debug/smoke-test 42 -v"},
			{Description: "Print a saved console", Command: "jenkdo logs --replay build.log.zst"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("logs", &params)
		},
		Logger: env.commandLogger("logs", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Replay != "" {
				return replayArchive(env, params, args)
			}
			return env.withSession(params.connectionParams, params.pollParams, logger, func(s *session) error {
				handle, err := s.target(ctx, args)
				if err != nil {
					return err
				}
				sink, err := newConsoleSink(env.Stdout, params.consoleParams, params.NoColor)
				if err != nil {
					return err
				}

				streamErr := followBuild(ctx, s, handle, s.workflowConfig(sink))
				if closeErr := sink.Close(); closeErr != nil {
					logger.Warn("finishing console output", "error", closeErr)
					if streamErr == nil {
						return cli.Internal("finishing console output: %w", closeErr)
					}
				}
				return streamErr
			})
		},
	}
}

// followBuild waits for handle to leave the queue, streams its console
// and returns the build's outcome.
func followBuild(ctx context.Context, s *session, handle *workflow.BuildHandle, config workflow.Config) error {
	if err := workflow.NewBuildTrigger(config).Await(ctx, handle); err != nil {
		return err
	}
	if _, err := workflow.NewStreamer(config).Stream(ctx, handle); err != nil {
		return err
	}
	return buildOutcome(s, handle)
}

func replayArchive(env *Environment, params logsParams, args []string) error {
	if len(args) > 0 {
		return cli.Validation("--replay takes no job or build number")
	}
	text, err := console.ReadArchive(params.Replay)
	if err != nil {
		return cli.NotFound("%w", err)
	}
	sink, err := newConsoleSink(env.Stdout, consoleParams{Verbose: params.Verbose}, params.NoColor)
	if err != nil {
		return err
	}
	if _, err := sink.Write(text); err != nil {
		return err
	}
	return sink.Close()
}
