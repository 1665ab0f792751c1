// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error handler used before the
// structured logger exists.
package process
