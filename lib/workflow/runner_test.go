// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/jenkinstest"
)

func smokeTestRequest() Request {
	return Request{
		Definition: JobDefinition{
			Name:       "smoke-test",
			Script:     greetScript,
			Parameters: map[string]string{"NAME": "alice"},
		},
		Validate: true,
	}
}

func TestRunSmokeTest(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{
		Number:       42,
		RunningPolls: 3,
		Chunks:       []string{"Hi, alice\n", "Wake up\n"},
	})

	var triggered []BuildHandle
	request := smokeTestRequest()
	request.OnTriggered = func(handle BuildHandle, outcome PublishOutcome) {
		triggered = append(triggered, handle)
		assert.Equal(t, PublishCreated, outcome.Action)
	}

	result, err := NewRunner(h.config).Run(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, "Hi, alice\nWake up\n", h.output.String())

	require.NotNil(t, result.Handle)
	assert.Equal(t, int64(42), result.Handle.Number)
	assert.Equal(t, buildstate.StatusSuccess, result.Handle.Status)
	assert.True(t, result.Validation.Valid)
	assert.Equal(t, PublishCreated, result.Publish.Action)

	require.Len(t, triggered, 1)
	assert.Equal(t, int64(42), triggered[0].Number)
	assert.Equal(t, []map[string]string{{"NAME": "alice"}}, h.server.Job("smoke-test").Triggers)
	assert.LessOrEqual(t, h.elapsed(), h.config.Timeout+h.config.Interval)

	assert.Equal(t, []string{
		"POST validate",
		"GET job",
		"POST createItem",
		"POST build",
		"GET queueItem",
	}, withoutPolls(h.server.RequestLog()))
}

// withoutPolls drops the crumb fetch and the streaming requests.
func withoutPolls(log []string) []string {
	var kept []string
	for _, action := range log {
		switch action {
		case "GET crumb", "GET build", "GET progressiveText":
		default:
			kept = append(kept, action)
		}
	}
	return kept
}

func TestRunPublishConflictStopsBeforeTrigger(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.server.AddFolder("smoke-test")

	result, err := NewRunner(h.config).Run(context.Background(), smokeTestRequest())
	require.Error(t, err)
	assert.Equal(t, KindPublishConflict, KindOf(err))
	assert.Equal(t, 4, ExitCode(err))
	assert.Nil(t, result.Handle)
	assert.Equal(t, 0, h.server.Requests("POST build"))
	assert.Empty(t, h.output.String())
}

func TestRunInvalidPipelineStopsBeforePublish(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.server.SetValidator(func(string) []string {
		return []string{`WorkflowScript: 2: Invalid agent type "anyy" @ line 2, column 5.`}
	})

	_, err := NewRunner(h.config).Run(context.Background(), smokeTestRequest())
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))

	var workflowError *Error
	require.ErrorAs(t, err, &workflowError)
	assert.Equal(t, []Diagnostic{{Line: 2, Column: 5, Message: `Invalid agent type "anyy"`}}, workflowError.Diagnostics)
	assert.Equal(t, 0, h.server.Requests("GET job"))
}

func TestRunSkipValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	request := smokeTestRequest()
	request.Validate = false

	result, err := NewRunner(h.config).Run(context.Background(), request)
	require.NoError(t, err)
	assert.Nil(t, result.Validation)
	assert.Equal(t, 0, h.server.Requests("POST validate"))
}

func TestRunDeclined(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	request := smokeTestRequest()
	request.Confirm = func(_ context.Context, validation *ValidationResult) (bool, error) {
		require.NotNil(t, validation)
		return false, nil
	}

	_, err := NewRunner(h.config).Run(context.Background(), request)
	assert.Equal(t, KindDeclined, KindOf(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, 0, h.server.Requests("GET job"))
}

func TestRunBuildOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		result string
		kind   Kind
		exit   int
	}{
		{jenkins.ResultFailure, KindBuildFailed, 6},
		{jenkins.ResultUnstable, KindBuildFailed, 6},
		{jenkins.ResultAborted, KindBuildAborted, 7},
	}
	for _, test := range tests {
		t.Run(test.result, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{RunningPolls: 1, Chunks: []string{"x\n"}, Result: test.result})

			result, err := NewRunner(h.config).Run(context.Background(), smokeTestRequest())
			assert.Equal(t, test.kind, KindOf(err))
			assert.Equal(t, test.exit, ExitCode(err))
			assert.Equal(t, "x\n", h.output.String())
			require.NotNil(t, result.Handle)
		})
	}
}

func TestRunCleanupDeletesJob(t *testing.T) {
	t.Parallel()

	t.Run("after success", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		request := smokeTestRequest()
		request.Cleanup = true

		_, err := NewRunner(h.config).Run(context.Background(), request)
		require.NoError(t, err)
		assert.Nil(t, h.server.Job("smoke-test"))
		assert.Contains(t, h.recorder.messages(), "Job 'smoke-test' deleted")
	})

	t.Run("after failure", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{Result: jenkins.ResultFailure})
		request := smokeTestRequest()
		request.Cleanup = true

		_, err := NewRunner(h.config).Run(context.Background(), request)
		assert.Equal(t, KindBuildFailed, KindOf(err))
		assert.Nil(t, h.server.Job("smoke-test"))
	})

	t.Run("kept by default", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := NewRunner(h.config).Run(context.Background(), smokeTestRequest())
		require.NoError(t, err)
		assert.NotNil(t, h.server.Job("smoke-test"))
		assert.Equal(t, 0, h.server.Requests("POST doDelete"))
	})
}

// cancelingWriter cancels a context on its first write.
type cancelingWriter struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (w *cancelingWriter) Write(data []byte) (int, error) {
	w.once.Do(w.cancel)
	return len(data), nil
}

func TestRunInterruptStopsRunningBuild(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{RunningPolls: 1000, Chunks: []string{"working\n"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.config.Output = &cancelingWriter{cancel: cancel}

	result, err := NewRunner(h.config).Run(ctx, smokeTestRequest())
	require.Error(t, err)
	assert.Equal(t, KindInterrupted, KindOf(err))
	assert.Equal(t, 130, ExitCode(err))
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result.Handle)
	assert.Equal(t, 1, h.server.Requests("POST stop"))
	assert.Equal(t, 0, h.server.Requests("POST cancelItem"))
}

func TestRunInterruptCancelsQueuedBuild(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{QueuePolls: 1000, Why: "Waiting for next available executor"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.recorder.hook = func(event Event) {
		if event.Level == LevelProgress {
			cancel()
		}
	}

	_, err := NewRunner(h.config).Run(ctx, smokeTestRequest())
	assert.Equal(t, KindInterrupted, KindOf(err))
	assert.Equal(t, 130, ExitCode(err))
	assert.Equal(t, 1, h.server.Requests("POST cancelItem"))
	assert.Equal(t, 0, h.server.Requests("POST stop"))
	assert.Contains(t, h.recorder.messages(), "'smoke-test' stopped from queue")
}

func TestAbortWaitsForStop(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	handle := startBuild(t, h, jenkinstest.BuildScript{RunningPolls: 1000})

	runner := NewRunner(h.config)
	require.NoError(t, runner.Abort(context.Background(), handle, true))
	assert.Equal(t, buildstate.StatusAborted, handle.Status)
	assert.Contains(t, h.recorder.messages(), "'smoke-test' stopped")
}
