// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jenkdo/jenkdo/lib/secret"
)

// Environment variable names.
const (
	EnvURL      = "JENKDO_URL"
	EnvUser     = "JENKDO_USER"
	EnvToken    = "JENKDO_TOKEN"
	EnvPassword = "JENKDO_PASSWORD"
	EnvConfig   = "JENKDO_CONFIG"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// Config is the resolved configuration.
type Config struct {
	// URL is the Jenkins root, e.g. https://jenkins.example.com/.
	URL string `yaml:"url" validate:"required,http_url"`

	// User is the Jenkins user name for basic authentication.
	User string `yaml:"user" validate:"required"`

	// TokenFile holds the API token when it is not in the environment.
	TokenFile string `yaml:"token_file"`

	// Folder is prepended to job names derived from file names.
	Folder string `yaml:"folder"`

	// PollInterval is the delay between console polls.
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`

	// Timeout bounds how long a build is streamed.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// QueueAttempts and QueueBackoff bound waiting for a queued build to
	// be assigned a number.
	QueueAttempts int           `yaml:"queue_attempts" validate:"gte=1"`
	QueueBackoff  time.Duration `yaml:"queue_backoff" validate:"gt=0"`

	// Retries and RetryBackoff govern transient failures while streaming.
	Retries      int           `yaml:"retries" validate:"gte=0"`
	RetryBackoff time.Duration `yaml:"retry_backoff" validate:"gte=0"`

	// FailureLogDir receives the body of every failed request.
	FailureLogDir string `yaml:"failure_log_dir"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// Token is the API token (or password). It is loaded from the
	// environment or TokenFile, or supplied by a prompt.
	Token *secret.Buffer `yaml:"-" validate:"-"`

	// Source is the config file that was read, empty if none.
	Source string `yaml:"-" validate:"-"`
}

// Overrides are flag values. Zero values leave the setting unchanged.
type Overrides struct {
	ConfigFile   string
	URL          string
	User         string
	Folder       string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Default returns the settings used before any source is applied.
func Default() *Config {
	return &Config{
		PollInterval:  2 * time.Second,
		Timeout:       30 * time.Minute,
		QueueAttempts: 60,
		QueueBackoff:  time.Second,
		Retries:       3,
		RetryBackoff:  2 * time.Second,
	}
}

// DefaultPath returns ~/.config/jenkdo/config.yaml, honouring
// XDG_CONFIG_HOME. It returns "" when neither it nor HOME is set.
func DefaultPath(lookup LookupFunc) string {
	if base, ok := lookup("XDG_CONFIG_HOME"); ok && base != "" {
		return filepath.Join(base, "jenkdo", "config.yaml")
	}
	if home, ok := lookup("HOME"); ok && home != "" {
		return filepath.Join(home, ".config", "jenkdo", "config.yaml")
	}
	return ""
}

// Resolve layers the file, environment and flag sources. It does not
// validate: call [Config.Validate] once the token is known, which may
// require prompting.
//
// An explicitly named config file (flag or JENKDO_CONFIG) must exist.
// The default location is optional.
func Resolve(lookup LookupFunc, overrides Overrides) (*Config, error) {
	cfg := Default()

	path, explicit := overrides.ConfigFile, overrides.ConfigFile != ""
	if !explicit {
		if value, ok := lookup(EnvConfig); ok && value != "" {
			path, explicit = value, true
		}
	}
	if !explicit {
		path = DefaultPath(lookup)
	}
	if path != "" {
		err := cfg.loadFile(path)
		switch {
		case err == nil:
			cfg.Source = path
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.applyEnvironment(lookup)
	cfg.applyOverrides(overrides)
	cfg.expandVariables(lookup)

	if err := cfg.loadToken(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironment(lookup LookupFunc) {
	if value, ok := lookup(EnvURL); ok && value != "" {
		c.URL = value
	}
	if value, ok := lookup(EnvUser); ok && value != "" {
		c.User = value
	}
}

func (c *Config) applyOverrides(overrides Overrides) {
	if overrides.URL != "" {
		c.URL = overrides.URL
	}
	if overrides.User != "" {
		c.User = overrides.User
	}
	if overrides.Folder != "" {
		c.Folder = overrides.Folder
	}
	if overrides.PollInterval > 0 {
		c.PollInterval = overrides.PollInterval
	}
	if overrides.Timeout > 0 {
		c.Timeout = overrides.Timeout
	}
}

// loadToken reads the token from the environment, then TokenFile.
// Neither being set is not an error here; Validate reports it.
func (c *Config) loadToken(lookup LookupFunc) error {
	for _, name := range []string{EnvToken, EnvPassword} {
		if value, ok := lookup(name); ok && value != "" {
			token, err := secret.NewFromString(value)
			if err != nil {
				return fmt.Errorf("storing %s: %w", name, err)
			}
			c.Token = token
			return nil
		}
	}
	if c.TokenFile == "" {
		return nil
	}
	token, err := secret.ReadFile(c.TokenFile)
	if err != nil {
		return fmt.Errorf("token_file: %w", err)
	}
	c.Token = token
	return nil
}

func (c *Config) expandVariables(lookup LookupFunc) {
	c.TokenFile = expandVars(c.TokenFile, lookup)
	c.FailureLogDir = expandVars(c.FailureLogDir, lookup)
}

// SetToken replaces the token, closing any previous one.
func (c *Config) SetToken(token *secret.Buffer) {
	if c.Token != nil && c.Token != token {
		c.Token.Close()
	}
	c.Token = token
}

// Close releases the token.
func (c *Config) Close() error {
	if c.Token == nil {
		return nil
	}
	return c.Token.Close()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// settingNames maps struct fields to the names users write.
var settingNames = map[string]string{
	"URL":           "url (" + EnvURL + ")",
	"User":          "user (" + EnvUser + ")",
	"PollInterval":  "poll_interval",
	"Timeout":       "timeout",
	"QueueAttempts": "queue_attempts",
	"QueueBackoff":  "queue_backoff",
	"Retries":       "retries",
	"RetryBackoff":  "retry_backoff",
}

// Validate checks that the server location and credentials are present
// and that numeric settings are in range.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fieldError := range validationErrors {
			errs = append(errs, describe(fieldError))
		}
	}
	if c.Token == nil || c.Token.Len() == 0 {
		errs = append(errs, fmt.Errorf("token is required (set %s, %s or token_file)", EnvToken, EnvPassword))
	}
	return errors.Join(errs...)
}

func describe(fieldError validator.FieldError) error {
	name, ok := settingNames[fieldError.Field()]
	if !ok {
		name = fieldError.Field()
	}
	switch fieldError.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "http_url":
		return fmt.Errorf("%s must be an http or https URL, got %q", name, fieldError.Value())
	default:
		return fmt.Errorf("%s: invalid value %v (%s %s)", name, fieldError.Value(), fieldError.Tag(), fieldError.Param())
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}.
func expandVars(s string, lookup LookupFunc) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value, ok := lookup(parts[1]); ok && value != "" {
			return value
		}
		return parts[2]
	})
}
