// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/console"
	"github.com/jenkdo/jenkdo/lib/jenkins"
)

// maxDrainFetches caps the console fetches after the build finished.
const maxDrainFetches = 5

// Streamer follows a build's console until it finishes.
type Streamer struct {
	config Config
}

// NewStreamer returns a Streamer.
func NewStreamer(config Config) *Streamer {
	return &Streamer{config: config.withDefaults()}
}

// Stream copies the console of handle's build to Output until the build
// reaches a terminal status, and returns that status. Finished builds,
// failed or not, are not errors. handle.Status is kept current.
//
// Each byte of the log is written exactly once, in order. Running out
// of Timeout returns a KindStreamTimeout error carrying the last status
// seen.
func (s *Streamer) Stream(ctx context.Context, handle *BuildHandle) (buildstate.Status, error) {
	if !handle.Started() {
		return handle.Status, &Error{
			Kind:  KindConfig,
			Stage: StageStream,
			Job:   handle.Job,
			Err:   fmt.Errorf("build has no number yet"),
		}
	}

	deadline := s.config.Clock.Now().Add(s.config.Timeout)
	state := buildstate.Queued
	last := buildstate.StatusPending
	if handle.Status == buildstate.StatusRunning {
		state, last = buildstate.Running, buildstate.StatusRunning
	}
	var cursor console.Cursor

	s.config.Reporter.Report(Event{Stage: StageStream, Job: handle.Job, Message: "Attempting to get console output:"})
	for {
		if _, err := s.fetch(ctx, handle, &cursor); err != nil {
			return last, s.streamError(handle, last, err)
		}

		build, err := retry(ctx, s, func() (*jenkins.Build, error) {
			return s.config.Client.GetBuild(ctx, handle.Job, handle.Number)
		})
		if err != nil {
			return last, s.streamError(handle, last, err)
		}
		if handle.URL == "" {
			handle.URL = build.URL
		}

		now := s.config.Clock.Now()
		state = buildstate.Next(state, buildstate.Observation{
			Building: build.Building,
			Result:   build.Result,
			TimedOut: !now.Before(deadline),
		})
		s.config.Logger.Debug("build polled",
			"job", handle.Job,
			"number", handle.Number,
			"building", build.Building,
			"result", build.Result,
			"state", state,
			"offset", cursor.Offset(),
		)

		if state == buildstate.Timeout {
			return last, &Error{
				Kind:       KindStreamTimeout,
				Stage:      StageStream,
				Job:        handle.Job,
				Server:     s.config.Client.BaseURL(),
				LastStatus: last,
				Err:        fmt.Errorf("build #%d still running after %s", handle.Number, s.config.Timeout),
			}
		}
		last = state.Status()
		handle.Status = last

		if state.Terminal() {
			s.drain(ctx, handle, &cursor)
			s.config.Reporter.Report(Event{
				Stage:   StageStream,
				Level:   resultLevel(last),
				Job:     handle.Job,
				Message: "Build ended with result: " + string(last),
			})
			return last, nil
		}

		wait := min(s.config.Interval, remaining(now, deadline))
		if err := clock.Wait(ctx, s.config.Clock, wait); err != nil {
			return last, s.streamError(handle, last, err)
		}
	}
}

// fetch reads console text at the cursor and writes what is new. A
// response cut at the client's size limit is followed up at once until
// the rest has been read or a fetch makes no progress. A failed fetch
// leaves the cursor where it was.
func (s *Streamer) fetch(ctx context.Context, handle *BuildHandle, cursor *console.Cursor) (*jenkins.ConsoleChunk, error) {
	for {
		offset := cursor.Offset()
		chunk, err := retry(ctx, s, func() (*jenkins.ConsoleChunk, error) {
			return s.config.Client.ProgressiveText(ctx, handle.Job, handle.Number, offset)
		})
		if err != nil {
			return nil, err
		}
		if fresh := cursor.Accept(chunk.Text, chunk.Start, chunk.Size); len(fresh) > 0 {
			if _, err := s.config.Output.Write(fresh); err != nil {
				return nil, fmt.Errorf("writing console output: %w", err)
			}
		}
		if !chunk.Truncated || cursor.Offset() == offset {
			return chunk, nil
		}
	}
}

// drain picks up log text written after the last poll. Failures only
// cost trailing output, so they are reported and not returned.
func (s *Streamer) drain(ctx context.Context, handle *BuildHandle, cursor *console.Cursor) {
	for range maxDrainFetches {
		chunk, err := s.fetch(ctx, handle, cursor)
		if err != nil {
			s.config.Reporter.Report(Event{
				Stage:   StageStream,
				Level:   LevelWarning,
				Job:     handle.Job,
				Message: "Console output may be incomplete: " + err.Error(),
			})
			return
		}
		if !chunk.More {
			return
		}
	}
}

func (s *Streamer) streamError(handle *BuildHandle, last buildstate.Status, err error) error {
	classified := classify(StageStream, handle.Job, s.config.Client.BaseURL(), err)
	if classified.LastStatus == "" {
		classified.LastStatus = last
	}
	return classified
}

// retry runs op, retrying transient failures Retries times with
// RetryBackoff between attempts.
func retry[T any](ctx context.Context, s *Streamer, op func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		value, err := op()
		if err == nil || !jenkins.IsTransient(err) || ctx.Err() != nil || attempt >= s.config.Retries {
			return value, err
		}
		s.config.Reporter.Report(Event{
			Stage:   StageStream,
			Level:   LevelWarning,
			Message: fmt.Sprintf("Request failed, retrying in %s: %v", s.config.RetryBackoff, err),
		})
		if waitErr := clock.Wait(ctx, s.config.Clock, s.config.RetryBackoff); waitErr != nil {
			return value, waitErr
		}
	}
}

func resultLevel(status buildstate.Status) Level {
	if status == buildstate.StatusSuccess {
		return LevelSuccess
	}
	return LevelError
}

// remaining returns how long until deadline, never negative.
func remaining(now, deadline time.Time) time.Duration {
	return max(deadline.Sub(now), 0)
}
