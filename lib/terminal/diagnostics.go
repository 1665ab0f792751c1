// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jenkdo/jenkdo/lib/workflow"
)

// RenderDiagnostics formats validator findings: a table of positions
// and messages, then each referenced source line with a caret under
// the reported column. With color the table is drawn with box
// characters and the source is syntax highlighted.
func RenderDiagnostics(script string, diagnostics []workflow.Diagnostic, color bool) string {
	writer := table.NewWriter()
	writer.AppendHeader(table.Row{"Line", "Column", "Message"})
	for _, diagnostic := range diagnostics {
		writer.AppendRow(table.Row{position(diagnostic.Line), position(diagnostic.Column), diagnostic.Message})
	}
	writer.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, WidthMax: 100},
	})
	if color {
		writer.SetStyle(table.StyleLight)
		writer.Style().Color.Header = text.Colors{text.Bold, text.FgRed}
	}

	var builder strings.Builder
	builder.WriteString(writer.Render())
	builder.WriteString("\n")

	lines := strings.Split(script, "\n")
	width := len(fmt.Sprint(len(lines)))
	for _, diagnostic := range diagnostics {
		if diagnostic.Line < 1 || diagnostic.Line > len(lines) {
			continue
		}
		source := lines[diagnostic.Line-1]
		shown := source
		if color {
			shown = highlight(source)
		}
		fmt.Fprintf(&builder, "\n%*d | %s\n", width, diagnostic.Line, shown)
		if diagnostic.Column > 0 {
			fmt.Fprintf(&builder, "%*s | %s^\n", width, "", caretPadding(source, diagnostic.Column))
		}
	}
	return builder.String()
}

func position(value int) string {
	if value <= 0 {
		return "-"
	}
	return fmt.Sprint(value)
}

// caretPadding returns whitespace reaching column (1-based) of line,
// keeping tabs so the caret lines up.
func caretPadding(line string, column int) string {
	var padding strings.Builder
	for index, character := range []rune(line) {
		if index >= column-1 {
			break
		}
		if character == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteRune(' ')
		}
	}
	return padding.String()
}

// highlight colours one line of Groovy. It returns the line unchanged
// if highlighting fails.
func highlight(line string) string {
	var buffer bytes.Buffer
	if err := quick.Highlight(&buffer, line, "groovy", "terminal256", "monokai"); err != nil {
		return line
	}
	return strings.TrimRight(buffer.String(), "\n")
}
