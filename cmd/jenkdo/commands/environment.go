// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/jenkdo/jenkdo/cmd/jenkdo/cli"
	"github.com/jenkdo/jenkdo/lib/clock"
	"github.com/jenkdo/jenkdo/lib/config"
	"github.com/jenkdo/jenkdo/lib/console"
	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/jobconfig"
	"github.com/jenkdo/jenkdo/lib/runstate"
	"github.com/jenkdo/jenkdo/lib/terminal"
	"github.com/jenkdo/jenkdo/lib/workflow"
)

// Environment is everything commands take from the process. Tests
// substitute buffers, a fake clock and a map-backed lookup.
type Environment struct {
	Lookup config.LookupFunc
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Clock  clock.Clock

	// HTTPClient, when set, is used instead of one built from the
	// configuration.
	HTTPClient *http.Client

	// StatePath is where the last-run record lives. Empty uses
	// runstate.DefaultPath.
	StatePath string
}

// ProcessEnvironment returns the Environment of the running process.
func ProcessEnvironment() *Environment {
	return &Environment{
		Lookup: os.LookupEnv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Clock:  clock.Real(),
	}
}

func (env *Environment) statePath() string {
	if env.StatePath != "" {
		return env.StatePath
	}
	return runstate.DefaultPath(env.Lookup)
}

// color reports whether w gets coloured output.
func (env *Environment) color(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	file, ok := w.(*os.File)
	return ok && terminal.ColorEnabled(file.Fd(), env.Lookup)
}

// connectionParams are the flags every command that talks to Jenkins
// accepts.
type connectionParams struct {
	ConfigFile string `flag:"config" desc:"configuration file (default $JENKDO_CONFIG or ~/.config/jenkdo/config.yaml)"`
	URL        string `flag:"url,j" desc:"Jenkins URL (env JENKDO_URL)"`
	User       string `flag:"user,u" desc:"Jenkins user (env JENKDO_USER)"`
	Folder     string `flag:"folder" desc:"folder job names are relative to"`
	Debug      bool   `flag:"debug" desc:"log requests and decisions at debug level"`
	NoColor    bool   `flag:"no-color" desc:"disable coloured output and strip colours from console text"`
}

// pollParams tune waiting for the build.
type pollParams struct {
	Interval time.Duration `flag:"interval" desc:"console poll interval (default from config, 2s)"`
	Timeout  time.Duration `flag:"timeout" desc:"give up streaming after this long (default from config, 30m)"`
}

// session is a resolved configuration and the client built from it.
type session struct {
	env    *Environment
	config *config.Config
	client *jenkins.Client
	logger *slog.Logger
	status *terminal.StatusPrinter
}

// connect resolves the configuration, prompting for a missing token
// on an interactive terminal, and builds the client. Failures are
// KindConfig errors.
func (env *Environment) connect(connection connectionParams, poll pollParams, logger *slog.Logger) (*session, error) {
	settings, err := config.Resolve(env.Lookup, config.Overrides{
		ConfigFile:   connection.ConfigFile,
		URL:          connection.URL,
		User:         connection.User,
		Folder:       connection.Folder,
		PollInterval: poll.Interval,
		Timeout:      poll.Timeout,
	})
	if err != nil {
		return nil, configError(err)
	}

	prompter := &cli.Prompter{In: env.Stdin, Out: env.Stderr}
	if settings.Token == nil && prompter.Interactive() {
		token, err := prompter.ReadSecret("Password: ")
		if err != nil {
			settings.Close()
			return nil, configError(err)
		}
		settings.SetToken(token)
	}
	if err := settings.Validate(); err != nil {
		settings.Close()
		return nil, configError(err)
	}

	httpClient := env.HTTPClient
	if httpClient == nil && settings.InsecureSkipVerify {
		httpClient, err = insecureHTTPClient()
		if err != nil {
			settings.Close()
			return nil, configError(err)
		}
	}

	logger = logger.With("server", settings.URL)
	client, err := jenkins.NewClient(jenkins.Config{
		BaseURL:       settings.URL,
		User:          settings.User,
		Token:         settings.Token,
		HTTPClient:    httpClient,
		FailureLogDir: settings.FailureLogDir,
		Logger:        logger,
	})
	if err != nil {
		settings.Close()
		return nil, configError(err)
	}
	logger.Debug("configuration resolved", "source", settings.Source, "user", settings.User, "folder", settings.Folder)

	return &session{
		env:    env,
		config: settings,
		client: client,
		logger: logger,
		status: terminal.NewStatusPrinter(env.Stderr, env.color(env.Stderr, connection.NoColor)),
	}, nil
}

// Close releases the token and ends any progress line.
func (s *session) Close() error {
	s.status.Finish()
	return s.config.Close()
}

// job qualifies name with the configured folder.
func (s *session) job(name string) string {
	return jobconfig.QualifiedName(s.config.Folder, name)
}

// workflowConfig returns the stage configuration for this session,
// with console text going to output.
func (s *session) workflowConfig(output io.Writer) workflow.Config {
	return workflow.Config{
		Client:        s.client,
		Clock:         s.env.Clock,
		Reporter:      s.status,
		Output:        output,
		Logger:        s.logger,
		QueueAttempts: s.config.QueueAttempts,
		QueueBackoff:  s.config.QueueBackoff,
		Interval:      s.config.PollInterval,
		Timeout:       s.config.Timeout,
		Retries:       retryCount(s.config.Retries),
		RetryBackoff:  s.config.RetryBackoff,
	}
}

// retryCount maps the configured retry count to workflow.Config, where
// zero means the default: "retries: 0" in a config file means none.
func retryCount(configured int) int {
	if configured == 0 {
		return -1
	}
	return configured
}

// consoleParams control how console text is shown.
type consoleParams struct {
	Verbose bool   `flag:"verbose,v" desc:"keep [Pipeline] bookkeeping lines in console output"`
	Archive string `flag:"archive" desc:"also write the raw console to this file (.zst and .lz4 are compressed)"`
}

// consoleSink is the writer chain console text flows through:
// optional colour stripping, the [Pipeline] filter and an archive.
type consoleSink struct {
	io.Writer
	filter  *console.PipelineFilter
	archive io.WriteCloser
}

func newConsoleSink(destination io.Writer, params consoleParams, noColor bool) (*consoleSink, error) {
	display := destination
	if noColor {
		display = terminal.NewStripWriter(display)
	}
	sink := &consoleSink{Writer: display}
	if !params.Verbose {
		sink.filter = console.NewPipelineFilter(display)
		sink.Writer = sink.filter
	}
	if params.Archive != "" {
		archive, err := console.CreateArchive(params.Archive)
		if err != nil {
			return nil, cli.Internal("creating archive: %w", err)
		}
		sink.archive = archive
		sink.Writer = io.MultiWriter(sink.Writer, archive)
	}
	return sink, nil
}

// Close flushes a held partial line and finishes the archive.
func (sink *consoleSink) Close() error {
	var err error
	if sink.filter != nil {
		err = sink.filter.Flush()
	}
	if sink.archive != nil {
		if closeErr := sink.archive.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", closeErr)
		}
	}
	return err
}

func configError(err error) error {
	return &workflow.Error{Kind: workflow.KindConfig, Stage: workflow.StageConfig, Err: err}
}

func insecureHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &http.Client{Jar: jar, Transport: transport, Timeout: time.Minute}, nil
}

// commandLogger returns the logger factory for a command whose debug
// flag is *debug.
func (env *Environment) commandLogger(name string, debug *bool) func() *slog.Logger {
	return func() *slog.Logger {
		return cli.NewCommandLogger(env.Stderr, *debug).With("command", name)
	}
}

// withSession connects, runs fn, and closes the session.
func (env *Environment) withSession(connection connectionParams, poll pollParams, logger *slog.Logger, fn func(*session) error) error {
	s, err := env.connect(connection, poll, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
