// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow runs a pipeline file through Jenkins: validate the
// declarative syntax, publish it as a pipeline job, trigger a build
// and stream its console until the build finishes.
//
// Each stage is a small type that can be used on its own ([Validator],
// [Publisher], [BuildTrigger], [Streamer]); [Runner] chains them and
// handles confirmation, cleanup and interrupts. All waiting goes
// through a [clock.Clock], so the poll loops run instantly under a
// fake clock in tests.
//
// Every failure is returned as an [*Error] carrying a [Kind] and the
// [Stage] it happened in. [ExitCode] maps any error to the process
// exit status.
//
// Progress is reported as [Event] values to a [Reporter]; console text
// is written, byte for byte and exactly once, to the Streamer's Output.
package workflow
