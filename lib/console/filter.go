// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"io"
)

// pipelineMarker tags the step bookkeeping lines of a pipeline log.
var pipelineMarker = []byte("[Pipeline]")

// PipelineFilter is an io.Writer that drops whole lines containing
// "[Pipeline]" and passes every other byte through unchanged. A
// trailing partial line is held until its newline arrives or Flush is
// called.
type PipelineFilter struct {
	destination io.Writer
	pending     []byte
}

// NewPipelineFilter wraps destination.
func NewPipelineFilter(destination io.Writer) *PipelineFilter {
	return &PipelineFilter{destination: destination}
}

// Write filters complete lines and buffers the remainder. It reports
// len(data) on success so callers see every byte as consumed.
func (filter *PipelineFilter) Write(data []byte) (int, error) {
	filter.pending = append(filter.pending, data...)

	var output []byte
	for {
		index := bytes.IndexByte(filter.pending, '\n')
		if index < 0 {
			break
		}
		line := filter.pending[:index+1]
		if !bytes.Contains(line, pipelineMarker) {
			output = append(output, line...)
		}
		filter.pending = filter.pending[index+1:]
	}
	if len(output) > 0 {
		if _, err := filter.destination.Write(output); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

// Flush writes a held partial line unless it is a "[Pipeline]" line.
func (filter *PipelineFilter) Flush() error {
	line := filter.pending
	filter.pending = nil
	if len(line) == 0 || bytes.Contains(line, pipelineMarker) {
		return nil
	}
	_, err := filter.destination.Write(line)
	return err
}
