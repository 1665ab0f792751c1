// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds the wall-clock safety valves used by tests
// that run a poll loop in a goroutine. Everything else in the test
// suite runs on the fake clock; [RequireReceive] is the one place a
// real timeout is allowed, so a broken loop fails the test instead of
// hanging it.
package testutil
