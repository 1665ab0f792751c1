// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"io"
	"log/slog"
	"time"

	"github.com/jenkdo/jenkdo/lib/buildstate"
	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/jenkins"
)

// Defaults for zero Config fields.
const (
	DefaultInterval      = 2 * time.Second
	DefaultTimeout       = 30 * time.Minute
	DefaultQueueAttempts = 60
	DefaultQueueBackoff  = time.Second
	DefaultRetries       = 3
	DefaultRetryBackoff  = 2 * time.Second
	DefaultAbortTimeout  = 10 * time.Second
)

// Config holds what the stages share.
type Config struct {
	// Client talks to Jenkins. Required.
	Client *jenkins.Client

	// Clock drives every wait. Defaults to the real clock.
	Clock clock.Clock

	// Reporter receives status events. Defaults to discarding them.
	Reporter Reporter

	// Output receives console text. Defaults to io.Discard.
	Output io.Writer

	// Logger is used for debug logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Force deletes an existing job other than a folder before
	// publishing.
	Force bool

	// QueueAttempts and QueueBackoff bound the wait for a build number.
	QueueAttempts int
	QueueBackoff  time.Duration

	// Interval is the console poll interval; Timeout bounds streaming.
	Interval time.Duration
	Timeout  time.Duration

	// Retries and RetryBackoff govern transient failures while
	// streaming. Zero means DefaultRetries; a negative value disables
	// retries.
	Retries      int
	RetryBackoff time.Duration

	// AbortTimeout bounds the best-effort abort after an interrupt.
	AbortTimeout time.Duration
}

func (config Config) withDefaults() Config {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	config.Reporter = reporterOrNop(config.Reporter)
	if config.Output == nil {
		config.Output = io.Discard
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.QueueAttempts <= 0 {
		config.QueueAttempts = DefaultQueueAttempts
	}
	if config.QueueBackoff <= 0 {
		config.QueueBackoff = DefaultQueueBackoff
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	switch {
	case config.Retries == 0:
		config.Retries = DefaultRetries
	case config.Retries < 0:
		config.Retries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}
	if config.AbortTimeout <= 0 {
		config.AbortTimeout = DefaultAbortTimeout
	}
	return config
}

// BuildHandle identifies a triggered build and tracks its status.
type BuildHandle struct {
	Job     string            `json:"job"`
	QueueID int64             `json:"queue_id"`
	Number  int64             `json:"number,omitempty"`
	URL     string            `json:"url,omitempty"`
	Status  buildstate.Status `json:"status"`
}

// Started reports whether the build left the queue.
func (handle *BuildHandle) Started() bool {
	return handle.Number > 0
}
