// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the polling
// loops in jenkdo.
//
// Workflow code never calls time.Now, time.After, or time.Sleep
// directly. It holds a Clock and waits through [Wait], which also
// honours context cancellation. Production wiring uses [Real]; tests use
// [Fake] and move time forward explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	streamer := &workflow.Streamer{Clock: fake, ...}
//	go streamer.Stream(ctx, handle)
//	fake.WaitForTimers(1)         // the poll loop is now sleeping
//	fake.Advance(2 * time.Second) // wake it deterministically
//
// When a test does not care how many waits happen (a build that runs for
// an unknown number of polls), [FakeClock.AutoAdvance] fires every
// registered wait as soon as it appears.
package clock
