// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the Jenkins API token outside the Go heap.
//
// A [Buffer] is an anonymous mmap region, locked against swap and
// excluded from core dumps. Close zeroes and unmaps it. The token is
// read once at startup (environment, token file, or an interactive
// prompt) and only copied to the heap at the HTTP basic-auth boundary
// through [Buffer.String].
package secret
