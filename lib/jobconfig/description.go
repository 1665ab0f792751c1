// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownOnce     sync.Once
	markdownRenderer goldmark.Markdown
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownRenderer
}

// RenderDescription converts markdown to the HTML Jenkins shows on the
// job page. Raw HTML in the source is omitted.
func RenderDescription(source []byte) (string, error) {
	var buffer bytes.Buffer
	if err := markdown().Convert(source, &buffer); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return buffer.String(), nil
}

// LoadDescription reads and renders a markdown description file.
func LoadDescription(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading description: %w", err)
	}
	return RenderDescription(source)
}
