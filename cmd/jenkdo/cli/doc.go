// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the jenkdo binary:
// a tree of [Command] values dispatched on the first positional
// argument, pflag flag sets built from tagged parameter structs
// ([FlagsFromParams]), "did you mean" suggestions for typos, --json
// output ([JSONOutput]), categorized argument errors ([ToolError]) and
// the terminal prompts a command may need ([Prompter]).
package cli
