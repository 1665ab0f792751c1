// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Archive formats, chosen by file extension.
const (
	FormatPlain = "plain"
	FormatZstd  = "zstd"
	FormatLZ4   = "lz4"
)

// FormatForPath maps ".zst" to zstd, ".lz4" to lz4, and anything else
// to plain text.
func FormatForPath(path string) string {
	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		return FormatZstd
	case ".lz4":
		return FormatLZ4
	default:
		return FormatPlain
	}
}

// archive closes the compressor before the file so the trailer lands
// on disk.
type archive struct {
	compressor io.WriteCloser
	file       *os.File
}

func (a *archive) Write(data []byte) (int, error) {
	return a.compressor.Write(data)
}

func (a *archive) Close() error {
	compressorError := a.compressor.Close()
	fileError := a.file.Close()
	if compressorError != nil {
		return fmt.Errorf("closing archive compressor: %w", compressorError)
	}
	return fileError
}

// nopWriteCloser lets the plain format share the archive type.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// CreateArchive creates (or truncates) path and returns a writer that
// stores everything written to it in the format implied by the
// extension. Close must be called to finish the stream.
func CreateArchive(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	var compressor io.WriteCloser
	switch FormatForPath(path) {
	case FormatZstd:
		encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		compressor = encoder
	case FormatLZ4:
		compressor = lz4.NewWriter(file)
	default:
		compressor = nopWriteCloser{file}
	}
	return &archive{compressor: compressor, file: file}, nil
}

// ReadArchive reads and decompresses an archive written by
// CreateArchive.
func ReadArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	switch FormatForPath(path) {
	case FormatZstd:
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer decoder.Close()
		return io.ReadAll(decoder)
	case FormatLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}
