// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the jenkdo command tree. Every command takes
// its process surroundings from an [Environment], so the whole tree can
// be driven against a fake server in tests.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lithammer/dedent"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/version"
)

// Root builds and returns the complete jenkdo command tree.
func Root(env *Environment) *cli.Command {
	return &cli.Command{
		Name: "jenkdo",
		Description: dedent.Dedent(`
			jenkdo: run pipeline files on Jenkins.

			Validate a declarative pipeline, publish it as a job, build it and
			follow its console, from one command. The server and credentials
			come from flags, JENKDO_* environment variables, a .env file or
			~/.config/jenkdo/config.yaml.`),
		HelpOutput: env.Stderr,
		Subcommands: []*cli.Command{
			runCommand(env),
			validateCommand(env),
			publishCommand(env),
			triggerCommand(env),
			logsCommand(env),
			stopCommand(env),
			deleteCommand(env),
			scriptCommand(env),
			whoamiCommand(env),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Fprintf(env.Stdout, "jenkdo %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the configured server and credentials",
				Command:     "jenkdo whoami",
			},
			{
				Description: "Run a pipeline file and follow the build",
				Command:     "jenkdo run smoke-test.groovy --param NAME=alice",
			},
			{
				Description: "Only check its syntax",
				Command:     "jenkdo validate smoke-test.groovy",
			},
			{
				Description: "Stop the build the last run started",
				Command:     "jenkdo stop",
			},
		},
	}
}
