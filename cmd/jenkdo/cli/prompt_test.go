// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Yes\r\n", true},
		{"n\n", false},
		{"nope", false},
		{"", false},
	}
	for _, test := range tests {
		var out bytes.Buffer
		prompter := &Prompter{In: strings.NewReader(test.input), Out: &out}
		got, err := prompter.Confirm(context.Background(), "> Press Enter to continue or Ctrl+C to exit")
		require.NoError(t, err, "input %q", test.input)
		assert.Equal(t, test.want, got, "input %q", test.input)
		assert.True(t, strings.HasPrefix(out.String(), "> Press Enter"))
	}
}

func TestConfirmCanceled(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	t.Cleanup(func() { writer.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prompter := &Prompter{In: reader, Out: io.Discard}
	got, err := prompter.Confirm(ctx, "? ")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, got)
}

func TestReadSecretFromPipe(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	prompter := &Prompter{In: strings.NewReader("s3cret\nrest\n"), Out: &out}
	assert.False(t, prompter.Interactive())

	token, err := prompter.ReadSecret("Password: ")
	require.NoError(t, err)
	defer token.Close()
	assert.Equal(t, "s3cret", token.String())
	assert.Equal(t, "Password: ", out.String())
}

func TestReadSecretEmpty(t *testing.T) {
	t.Parallel()

	prompter := &Prompter{In: strings.NewReader("\n"), Out: io.Discard}
	_, err := prompter.ReadSecret("Password: ")
	assert.Error(t, err)
}
