// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status       int
		notFound     bool
		unauthorized bool
		badRequest   bool
		serverError  bool
		transient    bool
	}{
		{status: 400, badRequest: true},
		{status: 401, unauthorized: true},
		{status: 403, unauthorized: true},
		{status: 404, notFound: true},
		{status: 500, serverError: true},
		{status: 502, serverError: true, transient: true},
		{status: 503, serverError: true, transient: true},
		{status: 504, serverError: true, transient: true},
	}
	for _, test := range tests {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{Method: "GET", URL: "https://ci/job/x", StatusCode: test.status})
			if got := IsNotFound(err); got != test.notFound {
				t.Errorf("IsNotFound = %v", got)
			}
			if got := IsUnauthorized(err); got != test.unauthorized {
				t.Errorf("IsUnauthorized = %v", got)
			}
			if got := IsBadRequest(err); got != test.badRequest {
				t.Errorf("IsBadRequest = %v", got)
			}
			if got := IsServerError(err); got != test.serverError {
				t.Errorf("IsServerError = %v", got)
			}
			if got := IsTransient(err); got != test.transient {
				t.Errorf("IsTransient = %v", got)
			}
			if got := StatusCode(err); got != test.status {
				t.Errorf("StatusCode = %d", got)
			}
		})
	}
}

func TestNonAPIErrorsAreUnclassified(t *testing.T) {
	err := errors.New("boom")
	if IsNotFound(err) || IsUnauthorized(err) || IsTransport(err) || IsTransient(err) {
		t.Error("plain error classified as API or transport error")
	}
	if StatusCode(err) != 0 {
		t.Error("StatusCode of plain error should be 0")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Method: "POST", URL: "https://ci/createItem", StatusCode: 400, Message: "A job already exists with the name smoke-test"}
	want := "jenkins: POST https://ci/createItem: HTTP 400: A job already exists with the name smoke-test"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorMessageSources(t *testing.T) {
	header := http.Header{}
	header.Set("X-Error", "No such parameter")
	if got := errorMessage(header, []byte("<html>ignored</html>")); got != "No such parameter" {
		t.Errorf("X-Error header: got %q", got)
	}
	if got := errorMessage(http.Header{}, []byte(`{"message":"denied"}`)); got != "denied" {
		t.Errorf("JSON message: got %q", got)
	}
	page := "<html><head><style>p{}</style><script>var x=1;</script></head><body><h2>HTTP ERROR 404</h2>\n  <p>Not Found</p></body></html>"
	if got := errorMessage(http.Header{}, []byte(page)); got != "HTTP ERROR 404 Not Found" {
		t.Errorf("HTML page: got %q", got)
	}
}
