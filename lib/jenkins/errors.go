// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jenkdo/jenkdo/lib/netutil"
)

// APIError is a non-2xx response from Jenkins.
type APIError struct {
	// Method and URL identify the failed request.
	Method string
	URL    string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the best human-readable summary Jenkins provided:
	// the X-Error header, a JSON "message", or the page text with
	// markup stripped.
	Message string

	// LogFile is where the full response body was saved, if the
	// client has a failure log directory.
	LogFile string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "jenkins: %s %s: HTTP %d", err.Method, err.URL, err.StatusCode)
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	if err.LogFile != "" {
		fmt.Fprintf(&builder, " (response saved to %s)", err.LogFile)
	}
	return builder.String()
}

// RequestError is a request that never produced an HTTP response:
// DNS failure, refused connection, TLS error, timeout.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (err *RequestError) Error() string {
	return fmt.Sprintf("jenkins: %s %s: %v", err.Method, err.URL, err.Err)
}

func (err *RequestError) Unwrap() error { return err.Err }

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, func(code int) bool { return code == http.StatusNotFound })
}

// IsUnauthorized reports whether err is a 401 or 403 response. Jenkins
// answers 401 for bad credentials and 403 for missing permissions.
func IsUnauthorized(err error) bool {
	return hasStatus(err, func(code int) bool {
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	})
}

// IsBadRequest reports whether err is a 400 response.
func IsBadRequest(err error) bool {
	return hasStatus(err, func(code int) bool { return code == http.StatusBadRequest })
}

// IsServerError reports whether err is a 5xx response.
func IsServerError(err error) bool {
	return hasStatus(err, func(code int) bool { return code >= 500 })
}

// IsTransient reports whether a retry of the same request could
// succeed: transport failures and gateway or availability errors. A
// response over the size limit is not transient.
func IsTransient(err error) bool {
	if errors.Is(err, netutil.ErrResponseTooLarge) {
		return false
	}
	if IsTransport(err) {
		return true
	}
	return hasStatus(err, func(code int) bool {
		return code == http.StatusBadGateway ||
			code == http.StatusServiceUnavailable ||
			code == http.StatusGatewayTimeout
	})
}

// IsTransport reports whether err is a *RequestError.
func IsTransport(err error) bool {
	var requestError *RequestError
	return errors.As(err, &requestError)
}

// StatusCode returns the HTTP status of an *APIError in err's chain,
// or 0.
func StatusCode(err error) int {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	return 0
}

func hasStatus(err error, match func(int) bool) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && match(apiError.StatusCode)
}

var (
	markupPattern     = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// maxMessageLength caps the inline message extracted from an HTML page.
const maxMessageLength = 300

// errorMessage extracts a one-line summary from a Jenkins error
// response.
func errorMessage(header http.Header, body []byte) string {
	if message := header.Get("X-Error"); message != "" {
		return message
	}
	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		return wire.Message
	}
	text := markupPattern.ReplaceAllString(string(body), " ")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if len(text) > maxMessageLength {
		text = text[:maxMessageLength] + "..."
	}
	return text
}
