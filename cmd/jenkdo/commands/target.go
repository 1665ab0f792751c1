// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/runstate"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

// target resolves the build "logs" and "stop" act on:
//
//	(no arguments)  the last recorded run
//	<job>           the job's most recent build
//	<job> <number>  that build
func (s *session) target(ctx context.Context, args []string) (*workflow.BuildHandle, error) {
	switch len(args) {
	case 0:
		return s.lastRun()
	case 1, 2:
	default:
		return nil, cli.Validation("expected [job] [number], got %d arguments", len(args))
	}

	job := s.job(args[0])
	if len(args) == 2 {
		number, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || number < 1 {
			return nil, cli.Validation("build number %q is not a positive integer", args[1])
		}
		return &workflow.BuildHandle{Job: job, Number: number, URL: s.buildURL(job, number), Status: buildstate.StatusPending}, nil
	}

	info, err := s.client.GetJob(ctx, job)
	if jenkins.IsNotFound(err) {
		return nil, &workflow.Error{Kind: workflow.KindNotFound, Stage: workflow.StageTrigger, Job: job, Server: s.client.BaseURL(), Err: err}
	}
	if err != nil {
		return nil, workflow.Classify(workflow.StageTrigger, job, s.client.BaseURL(), err)
	}
	last := info.NextBuildNumber - 1
	if last < 1 {
		return nil, cli.NotFound("job %q has no builds", job)
	}
	return &workflow.BuildHandle{Job: job, Number: last, URL: s.buildURL(job, last), Status: buildstate.StatusPending}, nil
}

func (s *session) lastRun() (*workflow.BuildHandle, error) {
	path := s.env.statePath()
	if path == "" {
		return nil, cli.NotFound("no previous run recorded (no state directory)").
			WithHint("Pass a job name, and optionally a build number.")
	}
	record, err := runstate.Load(path)
	if errors.Is(err, runstate.ErrNoRecord) {
		return nil, cli.NotFound("no previous run recorded").
			WithHint("Pass a job name, and optionally a build number.")
	}
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	if record.Server != s.client.BaseURL() {
		return nil, cli.Validation("the last run was on %s, not %s", record.Server, s.client.BaseURL()).
			WithHint("Pass a job name to act on a build on this server.")
	}
	s.logger.Debug("using last run", "job", record.Job, "queue_id", record.QueueID, "number", record.Number)
	return &workflow.BuildHandle{
		Job:     record.Job,
		QueueID: record.QueueID,
		Number:  record.Number,
		URL:     record.URL,
		Status:  buildstate.StatusPending,
	}, nil
}

func (s *session) buildURL(job string, number int64) string {
	return fmt.Sprintf("%s%s/%d/", s.client.BaseURL(), jenkins.JobPath(job), number)
}

// buildOutcome maps a finished build's status to the run's error.
func buildOutcome(s *session, handle *workflow.BuildHandle) error {
	var kind workflow.Kind
	switch handle.Status {
	case buildstate.StatusFailure:
		kind = workflow.KindBuildFailed
	case buildstate.StatusAborted:
		kind = workflow.KindBuildAborted
	default:
		return nil
	}
	return &workflow.Error{
		Kind:       kind,
		Stage:      workflow.StageStream,
		Job:        handle.Job,
		Server:     s.client.BaseURL(),
		LastStatus: handle.Status,
		Err:        fmt.Errorf("see %sconsole", handle.URL),
	}
}
