// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package terminal renders jenkdo's human-facing output: the "> ..."
// status lines, the validator's diagnostics table with highlighted
// source, and ANSI stripping for --no-color.
//
// Nothing here writes to the console text stream; status goes to
// whatever writer the caller passes, normally stderr, so that stdout
// carries the build log and nothing else.
package terminal
