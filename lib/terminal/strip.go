// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"io"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes escape sequences (colours from the AnsiColor
// plugin, cursor movement) from s.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// stripWriter removes escape sequences from everything written
// through it. Sequences split across writes are not recognised, so it
// belongs behind a line-buffering writer.
type stripWriter struct {
	destination io.Writer
}

// NewStripWriter returns a writer that strips ANSI escape sequences
// before writing to destination.
func NewStripWriter(destination io.Writer) io.Writer {
	return &stripWriter{destination: destination}
}

func (w *stripWriter) Write(data []byte) (int, error) {
	if _, err := io.WriteString(w.destination, ansi.Strip(string(data))); err != nil {
		return 0, err
	}
	return len(data), nil
}
