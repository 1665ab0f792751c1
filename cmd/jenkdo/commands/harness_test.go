// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/require"

	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/jenkinstest"
)

var epoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

var smokeTestScript = strings.TrimLeft(dedent.Dedent(`
	pipeline {
	    agent any
	    parameters {
	        string(name: 'NAME', defaultValue: 'world')
	    }
	    stages {
	        stage('Greet') {
	            steps {
	                echo "Hi, ${params.NAME}"
	                sleep 1
	                echo 'Wake up'
	            }
	        }
	    }
	}
`), "\n")

// harness drives the command tree against a fake server.
type harness struct {
	t      *testing.T
	server *jenkinstest.Server
	vars   map[string]string
	dir    string
	stdin  *strings.Reader
	stdout bytes.Buffer
	stderr bytes.Buffer
	env    *Environment
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server := jenkinstest.NewServer(t)
	fakeClock := clock.Fake(epoch)
	t.Cleanup(fakeClock.AutoAdvance())

	dir := t.TempDir()
	h := &harness{
		t:      t,
		server: server,
		dir:    dir,
		stdin:  strings.NewReader(""),
		vars: map[string]string{
			"JENKDO_URL":   server.URL,
			"JENKDO_USER":  jenkinstest.User,
			"JENKDO_TOKEN": jenkinstest.Token,
			"HOME":         dir,
		},
	}
	h.env = &Environment{
		Lookup: func(name string) (string, bool) {
			value, ok := h.vars[name]
			return value, ok
		},
		Stdin:     h.stdin,
		Stdout:    &h.stdout,
		Stderr:    &h.stderr,
		Clock:     fakeClock,
		StatePath: filepath.Join(dir, "state", "last-run.cbor"),
	}
	return h
}

// run executes one command line with fresh output buffers.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	return Root(h.env).Execute(context.Background(), args)
}

// answer makes the next prompt read text.
func (h *harness) answer(text string) {
	h.stdin.Reset(text)
}

// file writes content to name in the test directory and returns its path.
func (h *harness) file(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// smokeTest writes the smoke-test pipeline and scripts its build: build
// 42, running for three polls, printing two lines.
func (h *harness) smokeTest() string {
	h.server.ScriptBuild("smoke-test", jenkinstest.BuildScript{
		Number:       42,
		RunningPolls: 3,
		Chunks:       []string{"Hi, alice\n", "Wake up\n"},
	})
	return h.file("smoke-test.groovy", smokeTestScript)
}
