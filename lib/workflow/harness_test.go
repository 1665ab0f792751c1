// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/jenkinstest"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// recorder collects reported events.
type recorder struct {
	mu     sync.Mutex
	events []Event
	hook   func(Event)
}

func (r *recorder) Report(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(event)
	}
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages := make([]string, 0, len(r.events))
	for _, event := range r.events {
		messages = append(messages, event.Message)
	}
	return messages
}

// harness is a fake server plus a Config wired to it and a fake clock
// that advances whenever the code under test waits.
type harness struct {
	server   *jenkinstest.Server
	clock    *clock.FakeClock
	output   *bytes.Buffer
	recorder *recorder
	config   Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server := jenkinstest.NewServer(t)
	fakeClock := clock.Fake(epoch)
	t.Cleanup(fakeClock.AutoAdvance())

	h := &harness{
		server:   server,
		clock:    fakeClock,
		output:   &bytes.Buffer{},
		recorder: &recorder{},
	}
	h.config = Config{
		Client:        server.Client(t),
		Clock:         fakeClock,
		Reporter:      h.recorder,
		Output:        h.output,
		QueueAttempts: 10,
		QueueBackoff:  500 * time.Millisecond,
		Interval:      2 * time.Second,
		Timeout:       time.Minute,
		Retries:       2,
		RetryBackoff:  time.Second,
	}
	return h
}

// elapsed is the fake time spent so far.
func (h *harness) elapsed() time.Duration {
	return h.clock.Now().Sub(epoch)
}
