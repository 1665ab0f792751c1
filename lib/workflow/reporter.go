// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

// Level is the weight of an Event.
type Level int

const (
	LevelInfo Level = iota
	// LevelProgress events describe an ongoing wait; a terminal may
	// overwrite one with the next.
	LevelProgress
	LevelWarning
	LevelSuccess
	LevelError
)

// Event is one status line.
type Event struct {
	Stage   Stage
	Level   Level
	Job     string
	Message string
}

// Reporter receives status events. Implementations must be safe to call
// from the goroutine running the workflow; they are not called
// concurrently.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(event Event) { f(event) }

type nopReporter struct{}

func (nopReporter) Report(Event) {}

func reporterOrNop(reporter Reporter) Reporter {
	if reporter == nil {
		return nopReporter{}
	}
	return reporter
}
