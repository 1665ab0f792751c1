// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/cmd/jenkdo/commands"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

// TestCommandTreeDocumented walks the command tree and checks every
// command can be found from its parent's help listing.
func TestCommandTreeDocumented(t *testing.T) {
	root := commands.Root(commands.ProcessEnvironment())
	walkCommands(root, nil, func(command *cli.Command, path []string) {
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: missing Summary", strings.Join(path, " "))
		}
	})
}

func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := append(append([]string(nil), path...), command.Name)
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"success", nil, 0, ""},
		{"silent exit", &cli.ExitError{Code: 3}, 3, ""},
		{"argument error", cli.Validation("expected one pipeline file, got 0 arguments"), 2, "error: expected one pipeline file, got 0 arguments\n"},
		{"build failed", &workflow.Error{Kind: workflow.KindBuildFailed, Stage: workflow.StageStream}, 6, "error: "},
		{"wrapped", fmt.Errorf("run: %w", &workflow.Error{Kind: workflow.KindAuth, Stage: workflow.StageValidate}), 10, "error: run: "},
		{"interrupted", context.Canceled, 130, "error: context canceled\n"},
		{"other", fmt.Errorf("boom"), 1, "error: boom\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, test.code, report(&stderr, test.err))
			if test.output == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.True(t, strings.HasPrefix(stderr.String(), test.output), "stderr %q", stderr.String())
			}
		})
	}
}
