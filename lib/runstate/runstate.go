// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstate remembers the most recently triggered build so that
// "jenkdo logs" and "jenkdo stop" can find it without arguments.
package runstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ErrNoRecord is returned by Load when no build has been recorded.
var ErrNoRecord = errors.New("no previous run recorded")

// Record describes one triggered build.
type Record struct {
	Server    string    `cbor:"1,keyasint"`
	Job       string    `cbor:"2,keyasint"`
	QueueID   int64     `cbor:"3,keyasint"`
	Number    int64     `cbor:"4,keyasint,omitempty"`
	URL       string    `cbor:"5,keyasint,omitempty"`
	Digest    string    `cbor:"6,keyasint,omitempty"`
	StartedAt time.Time `cbor:"7,keyasint"`
}

var encoder = func() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	options.Time = cbor.TimeRFC3339Nano
	mode, err := options.EncMode()
	if err != nil {
		panic(fmt.Sprintf("runstate: cbor encoder: %v", err))
	}
	return mode
}()

// DefaultPath returns $XDG_STATE_HOME/jenkdo/last-run.cbor, falling
// back to ~/.local/state. It returns "" when neither is known.
func DefaultPath(lookup func(string) (string, bool)) string {
	if base, ok := lookup("XDG_STATE_HOME"); ok && base != "" {
		return filepath.Join(base, "jenkdo", "last-run.cbor")
	}
	if home, ok := lookup("HOME"); ok && home != "" {
		return filepath.Join(home, ".local", "state", "jenkdo", "last-run.cbor")
	}
	return ""
}

// Save writes record to path, replacing any previous record. The file
// is written to a temporary name and renamed into place.
func Save(path string, record Record) error {
	data, err := encoder.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	temporary, err := os.CreateTemp(filepath.Dir(path), ".last-run-*")
	if err != nil {
		return fmt.Errorf("creating run record: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return fmt.Errorf("writing run record: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("writing run record: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("saving run record: %w", err)
	}
	return nil
}

// Load reads the record at path.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading run record: %w", err)
	}
	var record Record
	if err := cbor.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding run record %s: %w", path, err)
	}
	return &record, nil
}
