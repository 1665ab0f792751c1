// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobconfig turns a local pipeline file into the config.xml of
// a Jenkins pipeline job.
//
// The typical flow:
//
//  1. NameFromPath: "ci/smoke-test.groovy" → job name "smoke-test"
//  2. ParseParams / LoadParamsFile: --param flags and a JSONC params
//     file → build parameters
//  3. Template.Render: script, description and parameter definitions →
//     config.xml bytes
//  4. Digest: a short blake3 fingerprint of the rendered config for logs
//     and the last-run record
//
// The built-in template defines a sandboxed CpsFlowDefinition job with
// one string parameter per build parameter, so buildWithParameters
// accepts them. A custom template (Go text/template syntax) replaces it;
// templates written for the older Jinja placeholder
// "{{ jenkinsfile | forceescape() }}" are accepted unchanged.
package jobconfig
