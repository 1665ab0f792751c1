// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	log := strings.Repeat("Hi, alice\nWake up\n", 200)
	for _, name := range []string{"build.log", "build.log.zst", "build.log.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			writer, err := CreateArchive(path)
			require.NoError(t, err)
			_, err = writer.Write([]byte(log[:100]))
			require.NoError(t, err)
			_, err = writer.Write([]byte(log[100:]))
			require.NoError(t, err)
			require.NoError(t, writer.Close())

			data, err := ReadArchive(path)
			require.NoError(t, err)
			assert.Equal(t, log, string(data))
		})
	}
}

func TestArchiveCompresses(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build.log.zst")
	writer, err := CreateArchive(path)
	require.NoError(t, err)
	_, err = writer.Write([]byte(strings.Repeat("[Pipeline] sh\n", 1000)))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(1000))
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	assert.Equal(FormatZstd, FormatForPath("out/build.zst"))
	assert.Equal(FormatLZ4, FormatForPath("build.lz4"))
	assert.Equal(FormatPlain, FormatForPath("build.log"))
	assert.Equal(FormatPlain, FormatForPath("build"))
}

func TestReadArchiveMissing(t *testing.T) {
	t.Parallel()
	_, err := ReadArchive(filepath.Join(t.TempDir(), "absent.zst"))
	assert.Error(t, err)
}
