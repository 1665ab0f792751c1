// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorEnabled reports whether output to fd should be coloured: fd is
// a terminal and NO_COLOR is unset (https://no-color.org).
func ColorEnabled(fd uintptr, lookup func(string) (string, bool)) bool {
	if value, ok := lookup("NO_COLOR"); ok && value != "" {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newRenderer returns a lipgloss renderer for out with a fixed
// profile: ANSI256 when color is set, plain ASCII otherwise. The
// profile is pinned so the renderer does not re-detect it from the
// environment.
func newRenderer(out io.Writer, color bool) *lipgloss.Renderer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return renderer
}
