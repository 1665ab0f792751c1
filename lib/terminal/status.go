// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jenkdo/jenkdo/lib/workflow"
)

// StatusPrinter writes workflow events as "> message" lines. It
// implements workflow.Reporter.
//
// With colour enabled, consecutive progress events overwrite each other
// on one line; without, each is its own line so logs stay readable.
type StatusPrinter struct {
	mu         sync.Mutex
	out        io.Writer
	color      bool
	styles     map[workflow.Level]lipgloss.Style
	inProgress bool
}

// NewStatusPrinter returns a StatusPrinter writing to out.
func NewStatusPrinter(out io.Writer, color bool) *StatusPrinter {
	renderer := newRenderer(out, color)
	green := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	yellow := renderer.NewStyle().Foreground(lipgloss.Color("3"))
	red := renderer.NewStyle().Foreground(lipgloss.Color("1"))
	return &StatusPrinter{
		out:   out,
		color: color,
		styles: map[workflow.Level]lipgloss.Style{
			workflow.LevelInfo:     green,
			workflow.LevelProgress: yellow,
			workflow.LevelWarning:  yellow,
			workflow.LevelSuccess:  green.Bold(true),
			workflow.LevelError:    red.Bold(true),
		},
	}
}

// Report implements workflow.Reporter.
func (p *StatusPrinter) Report(event workflow.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.styles[event.Level].Render("> " + event.Message)
	if event.Level == workflow.LevelProgress && p.color {
		io.WriteString(p.out, "\r"+ansi.EraseEntireLine+line)
		p.inProgress = true
		return
	}
	if p.inProgress {
		io.WriteString(p.out, "\n")
		p.inProgress = false
	}
	io.WriteString(p.out, line+"\n")
}

// Print writes a one-off line at level, outside any workflow.
func (p *StatusPrinter) Print(level workflow.Level, message string) {
	p.Report(workflow.Event{Level: level, Message: message})
}

// Finish terminates a pending progress line.
func (p *StatusPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inProgress {
		io.WriteString(p.out, "\n")
		p.inProgress = false
	}
}
