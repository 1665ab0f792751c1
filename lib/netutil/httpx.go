// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads.
//
// Jenkins API responses are small JSON documents, but a misbehaving
// proxy in front of the server can return anything. Whole-document
// reads go through [ReadResponse], which fails rather than return a
// cut-off body. Console text is resumable by offset, so it is read with
// [ReadPrefix] and the caller asks for the rest.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize is the default bound on response body reads: 64 MB.
const MaxResponseSize int64 = 64 << 20

// ErrResponseTooLarge is returned by ReadResponse for a body longer
// than its limit.
var ErrResponseTooLarge = errors.New("response body too large")

// ReadResponse reads a whole response body of at most limit bytes. A
// longer body is an error wrapping ErrResponseTooLarge.
func ReadResponse(body io.Reader, limit int64) ([]byte, error) {
	data, truncated, err := ReadPrefix(body, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// ReadPrefix reads at most limit bytes of body and reports whether
// more followed.
func ReadPrefix(body io.Reader, limit int64) (data []byte, truncated bool, err error) {
	data, err = io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
