// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Diagnostic is one syntax error reported by the validator. Line and
// Column are 1-based; zero means the server gave no position.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// ValidationResult is the validator's verdict.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Validator checks declarative pipeline syntax on the server.
type Validator struct {
	config Config
}

// NewValidator returns a Validator.
func NewValidator(config Config) *Validator {
	return &Validator{config: config.withDefaults()}
}

// Validate sends text to the server's validator. An invalid pipeline
// is a result, not an error; errors are transport and auth failures.
func (v *Validator) Validate(ctx context.Context, text string) (ValidationResult, error) {
	v.config.Reporter.Report(Event{Stage: StageValidate, Message: "Validating..."})

	validation, err := v.config.Client.ValidatePipeline(ctx, text)
	if err != nil {
		return ValidationResult{}, classify(StageValidate, "", v.config.Client.BaseURL(), err)
	}

	result := ValidationResult{Valid: validation.Valid}
	for _, message := range validation.Errors {
		result.Diagnostics = append(result.Diagnostics, ParseDiagnostic(message))
	}
	if result.Valid {
		v.config.Reporter.Report(Event{Stage: StageValidate, Level: LevelSuccess, Message: "Pipeline is valid"})
	} else {
		v.config.Reporter.Report(Event{
			Stage:   StageValidate,
			Level:   LevelError,
			Message: "Pipeline has " + plural(len(result.Diagnostics), "error"),
		})
	}
	return result, nil
}

// positionPattern matches the first "@ line N, column M." marker Groovy
// compilation errors carry. The source excerpt and caret Jenkins may
// print after it are not part of the message.
var positionPattern = regexp.MustCompile(`(?s)^(.*?)\s*@ line (\d+), column (\d+)`)

// scriptPrefix matches the "WorkflowScript: N: " prefix.
var scriptPrefix = regexp.MustCompile(`^WorkflowScript: \d+: `)

// ParseDiagnostic extracts the position from a validator error string.
// Strings without a position become a diagnostic at line 0.
func ParseDiagnostic(message string) Diagnostic {
	match := positionPattern.FindStringSubmatch(message)
	if match == nil {
		return Diagnostic{Message: strings.TrimSpace(scriptPrefix.ReplaceAllString(message, ""))}
	}
	line, _ := strconv.Atoi(match[2])
	column, _ := strconv.Atoi(match[3])
	return Diagnostic{
		Line:    line,
		Column:  column,
		Message: strings.TrimSpace(scriptPrefix.ReplaceAllString(match[1], "")),
	}
}

func plural(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(count) + " " + noun + "s"
}
