// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

// Package jenkins provides a typed client for the subset of the Jenkins
// remote API that jenkdo drives: declarative pipeline validation, job
// create/update/delete, build triggering, queue items, build status,
// progressive console text, and the script console.
//
// Requests authenticate with HTTP basic auth (user + API token). State
// changing requests carry a CSRF crumb fetched once from the crumb
// issuer; servers without CSRF protection return 404 there and the
// crumb is skipped.
//
// Job names may contain folder segments separated by "/". The client
// maps "team/app" to the URL path "/job/team/job/app".
//
// Non-2xx responses become [*APIError]; network failures become
// [*RequestError]. Use [IsNotFound], [IsUnauthorized], [IsBadRequest],
// [IsServerError], and [IsTransport] to classify them.
package jenkins
