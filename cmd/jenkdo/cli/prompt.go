// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jenkdo/jenkdo/lib/secret"
)

// Prompter asks the user questions on In and Out.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Interactive reports whether In is a terminal.
func (p *Prompter) Interactive() bool {
	return IsTerminal(p.In)
}

// ReadSecret prints prompt and reads one line with echo disabled when
// In is a terminal. The result is moved into a secret buffer.
func (p *Prompter) ReadSecret(prompt string) (*secret.Buffer, error) {
	fmt.Fprint(p.Out, prompt)
	var line []byte
	if file, ok := p.In.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		read, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", strings.TrimSpace(strings.TrimSuffix(prompt, ": ")), err)
		}
		line = read
	} else {
		read, err := p.readLine()
		if err != nil {
			return nil, err
		}
		line = []byte(read)
	}
	return secret.NewFromBytes(line)
}

// Confirm prints message and waits for a line. An empty answer or one
// starting with "y" accepts; anything else, or end of input, declines.
// It returns ctx.Err() if ctx ends first.
func (p *Prompter) Confirm(ctx context.Context, message string) (bool, error) {
	fmt.Fprint(p.Out, message)

	type answer struct {
		line string
		err  error
	}
	answers := make(chan answer, 1)
	go func() {
		line, err := p.readLine()
		answers <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return false, ctx.Err()
	case got := <-answers:
		if errors.Is(got.err, io.EOF) {
			fmt.Fprintln(p.Out)
			return false, nil
		}
		if got.err != nil {
			return false, got.err
		}
		response := strings.ToLower(strings.TrimSpace(got.line))
		return response == "" || strings.HasPrefix(response, "y"), nil
	}
}

func (p *Prompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
