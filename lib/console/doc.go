// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package console handles the bytes of a build log on their way from
// Jenkins to the terminal.
//
// [Cursor] tracks how much of the log has been printed and trims each
// progressive-text response to the bytes not yet seen, so a replayed or
// overlapping response never prints twice. [PipelineFilter] drops the
// "[Pipeline]" bookkeeping lines Jenkins interleaves with step output.
// [CreateArchive] tees the log into a zstd or lz4 compressed file, and
// [ReadArchive] reads one back.
package console
