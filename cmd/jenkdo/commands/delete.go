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

type deleteParams struct {
	connectionParams

	IgnoreMissing bool `flag:"ignore-missing" desc:"succeed when the job does not exist"`
}

func deleteCommand(env *Environment) *cli.Command {
	var params deleteParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a job",
		Usage:   "jenkdo delete <job> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Logger: env.commandLogger("delete", &params.Debug),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			name, err := oneArgument(args, "one job name")
			if err != nil {
				return err
			}
			return env.withSession(params.connectionParams, pollParams{}, logger, func(s *session) error {
				job := s.job(name)
				err := s.client.DeleteJob(ctx, job)
				switch {
				case jenkins.IsNotFound(err) && params.IgnoreMissing:
					s.logger.Debug("job already absent", "job", job)
					return nil
				case jenkins.IsNotFound(err):
					return &workflow.Error{Kind: workflow.KindNotFound, Stage: workflow.StageCleanup, Job: job, Server: s.client.BaseURL(), StatusCode: 404, Err: err}
				case err != nil:
					return workflow.Classify(workflow.StageCleanup, job, s.client.BaseURL(), err)
				}
				s.status.Print(workflow.LevelSuccess, fmt.Sprintf("Job '%s' deleted", job))
				return nil
			})
		},
	}
}
