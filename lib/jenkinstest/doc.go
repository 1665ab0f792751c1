// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package jenkinstest provides an in-memory Jenkins server for tests.
//
// [Server] implements the subset of the remote API that jenkdo uses:
// job CRUD through config.xml, the build queue, build status, the
// progressive console log, the declarative pipeline validator, the
// script console, the CSRF crumb issuer and basic authentication.
// Builds follow a [BuildScript]: how many queue polls pass before a
// number is assigned, how many status polls report the build running,
// which console chunks appear along the way and the final result.
//
// Every request is counted by action ("POST config.xml",
// "GET progressiveText", ...) so tests can assert how many calls a
// stage made and in which order.
package jenkinstest
