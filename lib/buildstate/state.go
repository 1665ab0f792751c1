// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildstate is the pure state machine behind the console poll
// loop. [Next] maps the current state and one observation of the remote
// build to the following state. It knows nothing about clocks, HTTP, or
// sleeping, so every transition is testable as a table.
package buildstate

import (
	"encoding/json"
	"fmt"
)

// State is a position of the poll loop.
type State int

const (
	// Queued: no observation has shown the build running yet.
	Queued State = iota
	Running
	Success
	Failure
	Aborted
	// Timeout: the local wall-clock budget ran out before the build
	// finished. The remote build may still be running.
	Timeout
)

var stateNames = [...]string{"QUEUED", "RUNNING", "SUCCESS", "FAILURE", "ABORTED", "TIMEOUT"}

func (state State) String() string {
	if state < 0 || int(state) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(state))
	}
	return stateNames[state]
}

// Terminal reports whether the loop stops in this state.
func (state State) Terminal() bool {
	return state >= Success
}

// Status maps the state to the build handle status it implies. Timeout
// says nothing about the remote build, so it maps to Unknown; callers
// that want the last known status keep it themselves.
func (state State) Status() Status {
	switch state {
	case Queued:
		return StatusPending
	case Running:
		return StatusRunning
	case Success:
		return StatusSuccess
	case Failure:
		return StatusFailure
	case Aborted:
		return StatusAborted
	default:
		return StatusUnknown
	}
}

// Observation is what one poll learned about the remote build.
type Observation struct {
	// Building is the build's "building" flag.
	Building bool

	// Result is the build's "result" field; empty while running and
	// briefly after the last step while Jenkins finalizes.
	Result string

	// TimedOut is set by the caller once its wall-clock budget is
	// spent.
	TimedOut bool
}

// Next returns the state after observation. Rules, in priority order:
//
//  1. Terminal states never change.
//  2. A finished build (not building, non-empty result) moves to the
//     matching terminal state, even on the poll that also timed out.
//  3. A timed-out observation moves to Timeout.
//  4. A building observation moves to Running.
//  5. Anything else (not started yet, finalizing) keeps the state.
func Next(current State, observation Observation) State {
	if current.Terminal() {
		return current
	}
	if !observation.Building && observation.Result != "" {
		return resultState(observation.Result)
	}
	if observation.TimedOut {
		return Timeout
	}
	if observation.Building {
		return Running
	}
	return current
}

// resultState maps a Jenkins result string to a terminal state.
// UNSTABLE counts as a failure and NOT_BUILT as an abort; anything
// unrecognised is a failure so it never reads as success.
func resultState(result string) State {
	switch result {
	case "SUCCESS":
		return Success
	case "ABORTED", "NOT_BUILT":
		return Aborted
	default:
		return Failure
	}
}

// Status is the lifecycle status of a triggered build as reported to
// the user.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusAborted Status = "ABORTED"
	StatusUnknown Status = "UNKNOWN"
)

// MarshalJSON keeps the zero Status readable in --json output.
func (status Status) MarshalJSON() ([]byte, error) {
	if status == "" {
		status = StatusUnknown
	}
	return json.Marshal(string(status))
}
