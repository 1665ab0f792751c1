// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// jenkdo validates a declarative pipeline file, publishes it as a
// Jenkins job, builds it and streams the build's console.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/cmd/jenkdo/commands"
	"github.com/jenkdo/jenkdo/lib/process"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

func main() {
	// A .env file in the working directory supplies JENKDO_* variables
	// that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		process.Fatal(fmt.Errorf("loading .env: %w", err), 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root(commands.ProcessEnvironment()).Execute(ctx, os.Args[1:])
	stop()
	os.Exit(report(os.Stderr, err))
}

// report prints err unless the command already explained itself, and
// returns the exit code.
func report(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var silent *cli.ExitError
	if !errors.As(err, &silent) {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode prefers an ExitCode method anywhere in err's chain, then
// the workflow classification.
func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return workflow.ExitCode(err)
}
