// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/jenkins"
)

// Request is one run of a pipeline file.
type Request struct {
	// Definition is the job to publish. Its Parameters are also sent
	// with the build request.
	Definition JobDefinition

	// Validate checks the pipeline on the server before publishing.
	Validate bool

	// Confirm, when set, is asked before publishing. It receives the
	// validation result (nil when validation was skipped). Returning
	// false declines the run.
	Confirm func(ctx context.Context, validation *ValidationResult) (bool, error)

	// Cleanup deletes the job once streaming ends, however it ends.
	Cleanup bool

	// OnTriggered is called once the server accepted the build request.
	OnTriggered func(handle BuildHandle, outcome PublishOutcome)
}

// Result is what a run produced, as far as it got.
type Result struct {
	Validation *ValidationResult `json:"validation,omitempty"`
	Publish    *PublishOutcome   `json:"publish,omitempty"`
	Handle     *BuildHandle      `json:"build,omitempty"`
}

// Runner chains the stages. Any stage failing stops the run.
type Runner struct {
	config Config

	Validator *Validator
	Publisher *Publisher
	Trigger   *BuildTrigger
	Streamer  *Streamer
}

// NewRunner returns a Runner whose stages share config.
func NewRunner(config Config) *Runner {
	config = config.withDefaults()
	return &Runner{
		config:    config,
		Validator: NewValidator(config),
		Publisher: NewPublisher(config),
		Trigger:   NewBuildTrigger(config),
		Streamer:  NewStreamer(config),
	}
}

// Run validates (optionally), confirms (optionally), publishes,
// triggers and streams. A build that ends FAILURE or ABORTED returns
// KindBuildFailed or KindBuildAborted. When ctx is cancelled after the
// build was queued, the queue item is cancelled or the build stopped
// before returning KindInterrupted.
func (r *Runner) Run(ctx context.Context, request Request) (result *Result, err error) {
	result = &Result{}
	definition := request.Definition
	server := r.config.Client.BaseURL()

	if request.Validate {
		validation, err := r.Validator.Validate(ctx, definition.Script)
		if err != nil {
			return result, err
		}
		result.Validation = &validation
		if !validation.Valid {
			return result, &Error{
				Kind:        KindInvalid,
				Stage:       StageValidate,
				Job:         definition.Name,
				Server:      server,
				Diagnostics: validation.Diagnostics,
			}
		}
	}

	if request.Confirm != nil {
		confirmed, err := request.Confirm(ctx, result.Validation)
		if err != nil {
			return result, classify(StageValidate, definition.Name, server, err)
		}
		if !confirmed {
			return result, &Error{Kind: KindDeclined, Stage: StageValidate, Job: definition.Name, Server: server}
		}
	}

	outcome, err := r.Publisher.Publish(ctx, definition)
	if err != nil {
		return result, err
	}
	result.Publish = &outcome

	if request.Cleanup {
		defer func() {
			if cleanupErr := r.cleanup(ctx, definition.Name); cleanupErr != nil && err == nil {
				err = cleanupErr
			}
		}()
	}

	handle, err := r.Trigger.Trigger(ctx, definition.Name, definition.Parameters)
	result.Handle = handle
	if handle != nil && request.OnTriggered != nil {
		request.OnTriggered(*handle, outcome)
	}
	if err != nil {
		return result, r.interrupted(ctx, handle, err)
	}

	status, err := r.Streamer.Stream(ctx, handle)
	if err != nil {
		return result, r.interrupted(ctx, handle, err)
	}

	switch status {
	case buildstate.StatusFailure:
		return result, r.buildError(KindBuildFailed, handle)
	case buildstate.StatusAborted:
		return result, r.buildError(KindBuildAborted, handle)
	}
	return result, nil
}

func (r *Runner) buildError(kind Kind, handle *BuildHandle) error {
	return &Error{
		Kind:       kind,
		Stage:      StageStream,
		Job:        handle.Job,
		Server:     r.config.Client.BaseURL(),
		LastStatus: handle.Status,
		Err:        fmt.Errorf("see %sconsole", handle.URL),
	}
}

// interrupted aborts the remote build when err is an interrupt.
func (r *Runner) interrupted(ctx context.Context, handle *BuildHandle, err error) error {
	if KindOf(err) != KindInterrupted || handle == nil {
		return err
	}
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.AbortTimeout)
	defer cancel()
	if abortErr := r.Abort(abortCtx, handle, false); abortErr != nil {
		r.config.Reporter.Report(Event{
			Stage:   StageStream,
			Level:   LevelWarning,
			Job:     handle.Job,
			Message: "Could not abort build: " + abortErr.Error(),
		})
	}
	return err
}

// Abort cancels handle's queue item, or stops its build if it already
// started. With wait it then polls until the build stops running or
// ctx ends.
func (r *Runner) Abort(ctx context.Context, handle *BuildHandle, wait bool) error {
	client := r.config.Client
	reporter := r.config.Reporter

	if !handle.Started() {
		item, err := client.GetQueueItem(ctx, handle.QueueID)
		if err == nil && item.Executable != nil {
			handle.Number, handle.URL = item.Executable.Number, item.Executable.URL
		}
	}

	if !handle.Started() {
		if err := client.CancelQueueItem(ctx, handle.QueueID); err != nil {
			return classify(StageTrigger, handle.Job, client.BaseURL(), err)
		}
		handle.Status = buildstate.StatusAborted
		reporter.Report(Event{Stage: StageTrigger, Job: handle.Job, Message: fmt.Sprintf("'%s' stopped from queue", handle.Job)})
		return nil
	}

	if err := client.StopBuild(ctx, handle.Job, handle.Number); err != nil {
		return classify(StageStream, handle.Job, client.BaseURL(), err)
	}
	reporter.Report(Event{
		Stage:   StageStream,
		Job:     handle.Job,
		Message: fmt.Sprintf("'%s' #%d abort request sent", handle.Job, handle.Number),
	})
	if !wait {
		return nil
	}

	reporter.Report(Event{Stage: StageStream, Level: LevelProgress, Job: handle.Job, Message: "Waiting for stop..."})
	for {
		build, err := client.GetBuild(ctx, handle.Job, handle.Number)
		if err != nil {
			return classify(StageStream, handle.Job, client.BaseURL(), err)
		}
		if !build.Building {
			handle.Status = buildstate.Next(buildstate.Running, buildstate.Observation{Result: build.Result}).Status()
			reporter.Report(Event{Stage: StageStream, Level: LevelSuccess, Job: handle.Job, Message: fmt.Sprintf("'%s' stopped", handle.Job)})
			return nil
		}
		if err := clock.Wait(ctx, r.config.Clock, r.config.Interval); err != nil {
			return classify(StageStream, handle.Job, client.BaseURL(), err)
		}
	}
}

// cleanup deletes the job with a context that outlives an interrupt.
func (r *Runner) cleanup(ctx context.Context, job string) error {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.AbortTimeout)
	defer cancel()
	if err := r.config.Client.DeleteJob(cleanupCtx, job); err != nil && !jenkins.IsNotFound(err) {
		return classify(StageCleanup, job, r.config.Client.BaseURL(), err)
	}
	r.config.Reporter.Report(Event{Stage: StageCleanup, Level: LevelSuccess, Job: job, Message: fmt.Sprintf("Job '%s' deleted", job)})
	return nil
}
