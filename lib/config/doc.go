// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves where the Jenkins server is and how to
// authenticate against it.
//
// Settings are layered, highest precedence first:
//
//   - command-line flags, passed in as [Overrides]
//   - environment variables, read through an injected lookup function
//     (JENKDO_URL, JENKDO_USER, JENKDO_TOKEN or JENKDO_PASSWORD)
//   - a YAML file named by JENKDO_CONFIG, or
//     ~/.config/jenkdo/config.yaml when that exists
//
// The resolved [Config] is built once at startup and passed down; no
// other package reads the environment. [Config.Validate] performs the
// presence checks. The token is kept in a [secret.Buffer] and is never
// stored in the struct's YAML form.
//
// ${VAR} and ${VAR:-default} references in path settings are expanded
// through the same lookup function.
package config
