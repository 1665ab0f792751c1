// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies argument and input errors so callers can
// tell "fix your command line" from "the thing you named is missing".
type ErrorCategory string

const (
	// CategoryValidation: the caller provided invalid input, such as a
	// wrong argument count or an unparseable value.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a referenced resource does not exist, such as
	// a missing pipeline file or no recorded last run.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal: an unexpected local failure.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands before any
// remote work starts. It maps to exit code 2, the same as a
// configuration problem.
type ToolError struct {
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error

	// Hint is an optional next step, printed after a blank line.
	Hint string
}

// Error returns the message, followed by the hint if there is one.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode implements the interface main checks for.
func (e *ToolError) ExitCode() int { return 2 }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected local failure.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
