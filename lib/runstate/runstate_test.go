// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package runstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "jenkdo", "last-run.cbor")
	started := time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)
	record := Record{
		Server:    "https://jenkins.example.com/",
		Job:       "debug/smoke-test",
		QueueID:   17,
		Number:    42,
		URL:       "https://jenkins.example.com/job/debug/job/smoke-test/42/",
		Digest:    "0123456789abcdef",
		StartedAt: started,
	}
	require.NoError(t, Save(path, record))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, started.Equal(loaded.StartedAt))
	loaded.StartedAt = started
	assert.Equal(t, record, *loaded)

	// A second save replaces the first.
	record.Number = 43
	require.NoError(t, Save(path, record))
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(43), loaded.Number)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestEncodingIsDeterministic(t *testing.T) {
	t.Parallel()

	record := Record{Job: "smoke-test", QueueID: 1, StartedAt: time.Unix(0, 0).UTC()}
	first, err := encoder.Marshal(record)
	require.NoError(t, err)
	second, err := encoder.Marshal(record)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.cbor"))
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestLoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last-run.cbor")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x00, 0x13}, 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "decoding run record")
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	lookup := func(values map[string]string) func(string) (string, bool) {
		return func(name string) (string, bool) {
			value, ok := values[name]
			return value, ok
		}
	}
	assert.Equal(t, "/state/jenkdo/last-run.cbor", DefaultPath(lookup(map[string]string{"XDG_STATE_HOME": "/state", "HOME": "/home/a"})))
	assert.Equal(t, "/home/a/.local/state/jenkdo/last-run.cbor", DefaultPath(lookup(map[string]string{"HOME": "/home/a"})))
	assert.Empty(t, DefaultPath(lookup(nil)))
}
