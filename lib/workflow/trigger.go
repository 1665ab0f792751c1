// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/jenkins"
)

// BuildTrigger requests builds and waits for them to leave the queue.
type BuildTrigger struct {
	config Config
}

// NewBuildTrigger returns a BuildTrigger.
func NewBuildTrigger(config Config) *BuildTrigger {
	return &BuildTrigger{config: config.withDefaults()}
}

// Trigger requests a build of job and polls its queue item until the
// server assigns a build number. Once the request is accepted the
// returned handle is non-nil, even alongside an error, so the caller
// can cancel the queue item.
func (t *BuildTrigger) Trigger(ctx context.Context, job string, params map[string]string) (*BuildHandle, error) {
	client := t.config.Client
	job = strings.Trim(job, "/")
	reporter := t.config.Reporter
	reporter.Report(Event{Stage: StageTrigger, Job: job, Message: "Starting..."})

	queueID, err := client.TriggerBuild(ctx, job, params)
	if err != nil {
		return nil, t.triggerError(job, params, err)
	}
	handle := &BuildHandle{Job: job, QueueID: queueID, Status: buildstate.StatusPending}
	t.config.Logger.Debug("build queued", "job", job, "queue_id", queueID)
	return handle, t.Await(ctx, handle)
}

// Await polls handle's queue item until the build starts, filling in
// Number and URL. It is a no-op for a handle that already started.
func (t *BuildTrigger) Await(ctx context.Context, handle *BuildHandle) error {
	if handle.Started() {
		return nil
	}
	client := t.config.Client
	reporter := t.config.Reporter
	job, queueID := handle.Job, handle.QueueID

	var lastReason string
	for attempt := 1; attempt <= t.config.QueueAttempts; attempt++ {
		item, err := client.GetQueueItem(ctx, queueID)
		switch {
		case err == nil:
		case jenkins.IsTransient(err) && ctx.Err() == nil:
			t.config.Logger.Debug("queue poll failed", "queue_id", queueID, "attempt", attempt, "error", err)
			item = nil
		default:
			return classify(StageTrigger, job, client.BaseURL(), err)
		}

		if item != nil {
			if item.Cancelled {
				return &Error{
					Kind:   KindTriggerCanceled,
					Stage:  StageTrigger,
					Job:    job,
					Server: client.BaseURL(),
					Err:    fmt.Errorf("queue item %d was cancelled", queueID),
				}
			}
			if item.Executable != nil {
				handle.Number = item.Executable.Number
				handle.URL = item.Executable.URL
				reporter.Report(Event{
					Stage:   StageTrigger,
					Level:   LevelSuccess,
					Job:     job,
					Message: fmt.Sprintf("Building '%s' #%d started", job, handle.Number),
				})
				return nil
			}
			if item.Why != "" && item.Why != lastReason {
				lastReason = item.Why
				reporter.Report(Event{
					Stage:   StageTrigger,
					Level:   LevelProgress,
					Job:     job,
					Message: "Waiting in queue. Reason: " + item.Why,
				})
			}
		}

		if attempt == t.config.QueueAttempts {
			break
		}
		if err := clock.Wait(ctx, t.config.Clock, t.config.QueueBackoff); err != nil {
			return classify(StageTrigger, job, client.BaseURL(), err)
		}
	}

	return &Error{
		Kind:   KindQueueTimeout,
		Stage:  StageTrigger,
		Job:    job,
		Server: client.BaseURL(),
		Err: fmt.Errorf("queue item %d still waiting after %d polls (last reason: %s)",
			queueID, t.config.QueueAttempts, orUnknown(lastReason)),
	}
}

// triggerError classifies a refused build request.
func (t *BuildTrigger) triggerError(job string, params map[string]string, err error) error {
	classified := classify(StageTrigger, job, t.config.Client.BaseURL(), err)
	if classified.Kind != KindUnknown {
		return classified
	}
	switch status := jenkins.StatusCode(err); {
	case status == http.StatusNotFound:
		classified.Kind = KindNotFound
	case len(params) > 0 && (status == http.StatusBadRequest || status == http.StatusInternalServerError):
		classified.Kind = KindParameter
	}
	return classified
}

func orUnknown(reason string) string {
	if reason == "" {
		return "unknown"
	}
	return reason
}
