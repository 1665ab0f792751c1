// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/jenkins"
)

// Stage names the step of the workflow an error or event belongs to.
type Stage string

const (
	StageConfig   Stage = "config"
	StageValidate Stage = "validate"
	StagePublish  Stage = "publish"
	StageTrigger  Stage = "trigger"
	StageStream   Stage = "stream"
	StageCleanup  Stage = "cleanup"
	StageScript   Stage = "script"
)

// Kind classifies a workflow failure.
type Kind int

const (
	// KindUnknown is a failure with no more specific class.
	KindUnknown Kind = iota

	// KindConfig is a usage or configuration problem found before any
	// request was made.
	KindConfig

	// KindTransport is a network failure, a server that stayed
	// unavailable (502/503/504) after retries, or any other 5xx.
	KindTransport

	// KindAuth is a 401 or 403 from the server.
	KindAuth

	// KindInvalid is a pipeline rejected by the validator.
	KindInvalid

	// KindPublishConflict is a job name taken by something other than
	// a pipeline job.
	KindPublishConflict

	// KindNotFound is a job that does not exist when triggered.
	KindNotFound

	// KindParameter is a build request the server refused because of
	// its parameters.
	KindParameter

	// KindTriggerCanceled is a queue item that was cancelled before it
	// started.
	KindTriggerCanceled

	// KindQueueTimeout is a queue item still waiting after every poll
	// attempt.
	KindQueueTimeout

	// KindBuildFailed is a build that finished FAILURE or UNSTABLE.
	KindBuildFailed

	// KindBuildAborted is a build that finished ABORTED or NOT_BUILT.
	KindBuildAborted

	// KindStreamTimeout is a build still running when the streaming
	// timeout ran out.
	KindStreamTimeout

	// KindDeclined is a run the user declined at the confirmation
	// prompt.
	KindDeclined

	// KindInterrupted is a run cancelled by a signal.
	KindInterrupted
)

var kindNames = map[Kind]string{
	KindUnknown:         "failed",
	KindConfig:          "configuration error",
	KindTransport:       "transport error",
	KindAuth:            "authentication failed",
	KindInvalid:         "pipeline is invalid",
	KindPublishConflict: "publish conflict",
	KindNotFound:        "job not found",
	KindParameter:       "parameters rejected",
	KindTriggerCanceled: "build canceled in queue",
	KindQueueTimeout:    "build did not leave the queue",
	KindBuildFailed:     "build failed",
	KindBuildAborted:    "build aborted",
	KindStreamTimeout:   "timed out waiting for build",
	KindDeclined:        "declined",
	KindInterrupted:     "interrupted",
}

func (kind Kind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(kind)) + ")"
}

// Error is a classified workflow failure.
type Error struct {
	Kind  Kind
	Stage Stage

	// Job is the job the stage operated on, if any.
	Job string

	// Server is the Jenkins base URL.
	Server string

	// StatusCode is the HTTP status behind the failure, or zero.
	StatusCode int

	// Diagnostics are the validator's findings for KindInvalid.
	Diagnostics []Diagnostic

	// LastStatus is the last build status observed before the failure.
	LastStatus buildstate.Status

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString(string(e.Stage))
	if e.Job != "" {
		builder.WriteString(" ")
		builder.WriteString(strconv.Quote(e.Job))
	}
	builder.WriteString(": ")
	builder.WriteString(e.Kind.String())
	if e.Kind == KindStreamTimeout && e.LastStatus != "" {
		builder.WriteString(" (last status ")
		builder.WriteString(string(e.LastStatus))
		builder.WriteString(")")
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements the exit-code interface main uses.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindAuth:
		return 10
	case KindInterrupted:
		return 130
	case KindDeclined:
		return 1
	case KindConfig:
		return 2
	case KindInvalid:
		return 3
	case KindPublishConflict:
		return 4
	case KindNotFound, KindParameter, KindTriggerCanceled, KindQueueTimeout:
		return 5
	case KindBuildFailed:
		return 6
	case KindBuildAborted:
		return 7
	case KindStreamTimeout:
		return 8
	}
	switch e.Stage {
	case StageConfig:
		return 2
	case StageValidate:
		return 3
	case StagePublish:
		return 4
	case StageTrigger:
		return 5
	case StageStream:
		if e.Kind == KindTransport {
			return 9
		}
	}
	return 1
}

// ExitCode maps err to a process exit status: 0 for nil, the
// classification of a wrapped *Error, 130 for a bare context
// cancellation and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var workflowError *Error
	if errors.As(err, &workflowError) {
		return workflowError.ExitCode()
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

// KindOf returns the Kind of a wrapped *Error, or KindUnknown.
func KindOf(err error) Kind {
	var workflowError *Error
	if errors.As(err, &workflowError) {
		return workflowError.Kind
	}
	return KindUnknown
}

// Classify wraps err from a direct client call in an *Error for stage.
// It returns nil for a nil err.
func Classify(stage Stage, job, server string, err error) error {
	if err == nil {
		return nil
	}
	return classify(stage, job, server, err)
}

// classify wraps a client or context error in an *Error for stage.
// Errors that are already classified pass through unchanged.
func classify(stage Stage, job, server string, err error) *Error {
	var workflowError *Error
	if errors.As(err, &workflowError) {
		return workflowError
	}
	classified := &Error{
		Kind:       KindUnknown,
		Stage:      stage,
		Job:        job,
		Server:     server,
		StatusCode: jenkins.StatusCode(err),
		Err:        err,
	}
	switch {
	case errors.Is(err, context.Canceled):
		classified.Kind = KindInterrupted
	case jenkins.IsUnauthorized(err):
		classified.Kind = KindAuth
	case jenkins.IsTransient(err), jenkins.IsServerError(err), errors.Is(err, context.DeadlineExceeded):
		classified.Kind = KindTransport
	}
	return classified
}
