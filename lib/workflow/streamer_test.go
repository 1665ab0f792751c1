// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/jenkinstest"
)

// startBuild triggers a scripted build of a fresh job and returns its
// handle.
func startBuild(t *testing.T, h *harness, script jenkinstest.BuildScript) *BuildHandle {
	t.Helper()
	h.server.AddJob("smoke-test", jenkins.ClassPipelineJob, []byte("<flow-definition/>"))
	h.server.ScriptBuild("smoke-test", script)
	handle, err := NewBuildTrigger(h.config).Trigger(context.Background(), "smoke-test", nil)
	require.NoError(t, err)
	h.output.Reset()
	return handle
}

func TestStreamPrintsEachByteOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	handle := startBuild(t, h, jenkinstest.BuildScript{
		Number:       42,
		RunningPolls: 3,
		Chunks:       []string{"Hi, alice\n", "Wake up\n"},
	})
	start := h.clock.Now()

	status, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, buildstate.StatusSuccess, status)
	assert.Equal(t, buildstate.StatusSuccess, handle.Status)
	assert.Equal(t, "Hi, alice\nWake up\n", h.output.String())
	assert.Equal(t, 3*h.config.Interval, h.clock.Now().Sub(start))
	assert.Contains(t, h.recorder.messages(), "Build ended with result: SUCCESS")
}

func TestStreamIgnoresReplayedText(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	handle := startBuild(t, h, jenkinstest.BuildScript{
		RunningPolls: 4,
		Chunks:       []string{"one\n", "two\n", "three\n", "four\n", "five\n"},
		IgnoreStart:  true,
	})

	_, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nfour\nfive\n", h.output.String())
}

func TestStreamReportsFinishedBuildResults(t *testing.T) {
	t.Parallel()

	for result, want := range map[string]buildstate.Status{
		jenkins.ResultFailure:  buildstate.StatusFailure,
		jenkins.ResultUnstable: buildstate.StatusFailure,
		jenkins.ResultAborted:  buildstate.StatusAborted,
		jenkins.ResultNotBuilt: buildstate.StatusAborted,
	} {
		t.Run(result, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			handle := startBuild(t, h, jenkinstest.BuildScript{
				RunningPolls: 1,
				Chunks:       []string{"start\n", "boom\n"},
				Result:       result,
			})
			status, err := NewStreamer(h.config).Stream(context.Background(), handle)
			require.NoError(t, err)
			assert.Equal(t, want, status)
			assert.Equal(t, "start\nboom\n", h.output.String())
		})
	}
}

func TestStreamReadsConsoleTextPastResponseLimit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	long := strings.Repeat("0123456789abcdef", 512) + "\n"
	handle := startBuild(t, h, jenkinstest.BuildScript{
		RunningPolls: 1,
		Chunks:       []string{long, "TAIL\n"},
	})
	h.config.Client = h.server.ConfiguredClient(t, jenkins.Config{MaxResponseSize: 2048})

	status, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, buildstate.StatusSuccess, status)
	assert.Equal(t, long+"TAIL\n", h.output.String())
	assert.GreaterOrEqual(t, h.server.Requests("GET progressiveText"), 5)
}

func TestStreamTimeout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.config.Timeout = 9 * time.Second
	h.config.Interval = 2 * time.Second
	handle := startBuild(t, h, jenkinstest.BuildScript{RunningPolls: 1000, Chunks: []string{"forever\n"}})
	start := h.clock.Now()

	status, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.Error(t, err)
	assert.Equal(t, KindStreamTimeout, KindOf(err))
	assert.Equal(t, 8, ExitCode(err))
	assert.Equal(t, buildstate.StatusRunning, status)

	var workflowError *Error
	require.ErrorAs(t, err, &workflowError)
	assert.Equal(t, buildstate.StatusRunning, workflowError.LastStatus)

	spent := h.clock.Now().Sub(start)
	assert.GreaterOrEqual(t, spent, h.config.Timeout)
	assert.LessOrEqual(t, spent, h.config.Timeout+h.config.Interval)
	assert.Equal(t, "forever\n", h.output.String())
}

func TestStreamRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	handle := startBuild(t, h, jenkinstest.BuildScript{RunningPolls: 2, Chunks: []string{"a\n", "b\n", "c\n"}})
	h.server.FailNext("GET progressiveText", http.StatusServiceUnavailable, http.StatusBadGateway)
	h.server.FailNext("GET build", http.StatusGatewayTimeout)

	status, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, buildstate.StatusSuccess, status)
	assert.Equal(t, "a\nb\nc\n", h.output.String())

	warnings := 0
	for _, message := range h.recorder.messages() {
		if strings.HasPrefix(message, "Request failed, retrying") {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
}

func TestStreamGivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	handle := startBuild(t, h, jenkinstest.BuildScript{RunningPolls: 5, Chunks: []string{"a\n"}})
	h.server.FailNext("GET build",
		http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)

	status, err := NewStreamer(h.config).Stream(context.Background(), handle)
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, 9, ExitCode(err))
	assert.Equal(t, buildstate.StatusPending, status)
	assert.Equal(t, h.config.Retries+1, h.server.Requests("GET build"))
	// The text fetched before the failure was printed once.
	assert.Equal(t, "a\n", h.output.String())
}

func TestStreamRequiresBuildNumber(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := NewStreamer(h.config).Stream(context.Background(), &BuildHandle{Job: "x", QueueID: 1})
	assert.Equal(t, KindConfig, KindOf(err))
}
