// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader("Started by user admin\n"), MaxResponseSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "Started by user admin\n" {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		data, err := ReadResponse(bytes.NewReader(nil), MaxResponseSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("expected empty, got %d bytes", len(data))
		}
	})

	t.Run("body at the limit", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader("12345"), 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "12345" {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("body over the limit", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader("123456"), 5)
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("err = %v, want ErrResponseTooLarge", err)
		}
		if data != nil {
			t.Fatalf("got %q with the error", data)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse(failReader{}, MaxResponseSize); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestReadPrefix(t *testing.T) {
	data, truncated, err := ReadPrefix(strings.NewReader("Hi, alice\nWake up\n"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "Hi, alice\n" || !truncated {
		t.Fatalf("ReadPrefix() = %q, %v; want %q, true", data, truncated, "Hi, alice\n")
	}

	data, truncated, err = ReadPrefix(strings.NewReader("Wake up\n"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "Wake up\n" || truncated {
		t.Fatalf("ReadPrefix() = %q, %v; want %q, false", data, truncated, "Wake up\n")
	}
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
