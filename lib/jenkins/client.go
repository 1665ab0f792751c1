// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jenkdo/jenkdo/lib/netutil"
	"github.com/jenkdo/jenkdo/lib/secret"
	"github.com/jenkdo/jenkdo/lib/version"
)

// defaultTimeout bounds a single request when the caller does not
// supply an HTTP client. Poll loops apply their own deadlines on top.
const defaultTimeout = 60 * time.Second

// Config holds configuration for creating a Jenkins API Client.
type Config struct {
	// BaseURL is the Jenkins root URL, e.g. "https://ci.example.com"
	// or "https://example.com/jenkins". Required.
	BaseURL string

	// User is the Jenkins user name. Required.
	User string

	// Token is the user's API token (or password). Required. The
	// client does not close it.
	Token *secret.Buffer

	// HTTPClient is used for all requests. Defaults to a client with a
	// cookie jar (the crumb is bound to the session cookie) and a
	// 60-second timeout.
	HTTPClient *http.Client

	// FailureLogDir, when set, receives the body of every non-2xx
	// response as an HTML file. Jenkins reports most failures as
	// full HTML error pages that are unreadable inline.
	FailureLogDir string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// MaxResponseSize bounds one response body. Zero means
	// netutil.MaxResponseSize. Console text longer than this is
	// fetched in several requests; any other response is an error.
	MaxResponseSize int64
}

// Client is a Jenkins remote API client.
type Client struct {
	baseURL       string
	user          string
	token         *secret.Buffer
	httpClient    *http.Client
	failureLogDir string
	logger        *slog.Logger
	maxBody       int64

	crumbMu sync.Mutex
	crumb   *crumb
}

// crumb is the CSRF header a server expects on state-changing
// requests. An empty field name means the server has no crumb issuer.
type crumb struct {
	field string
	value string
}

// NewClient creates a Jenkins client. Returns an error if the base URL
// is missing or not http(s), or if credentials are missing.
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("jenkins: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("jenkins: parsing BaseURL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("jenkins: BaseURL must be http or https (got %q)", config.BaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("jenkins: BaseURL has no host (got %q)", config.BaseURL)
	}
	if config.User == "" {
		return nil, fmt.Errorf("jenkins: User is required")
	}
	if config.Token == nil || config.Token.Len() == 0 {
		return nil, fmt.Errorf("jenkins: Token is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("jenkins: creating cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: defaultTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := config.MaxResponseSize
	if maxBody <= 0 {
		maxBody = netutil.MaxResponseSize
	}

	return &Client{
		baseURL:       baseURL,
		user:          config.User,
		token:         config.Token,
		httpClient:    httpClient,
		failureLogDir: config.FailureLogDir,
		logger:        logger,
		maxBody:       maxBody,
	}, nil
}

// BaseURL returns the normalized server URL (no trailing slash).
func (client *Client) BaseURL() string {
	return client.baseURL
}

// request describes one API call. Paths are relative to the base URL.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string

	// partial accepts a body cut at the size limit instead of failing.
	partial bool
}

// response is a fully read API response.
type response struct {
	statusCode int
	header     http.Header
	body       []byte
	truncated  bool
}

// do executes an authenticated request and reads the (bounded) body.
// POST requests carry the CSRF crumb; a 403 complaining about the crumb
// refreshes it and retries once. Non-2xx responses return *APIError.
func (client *Client) do(ctx context.Context, call request) (*response, error) {
	result, err := client.send(ctx, call)
	if err != nil {
		return nil, err
	}
	if result.statusCode == http.StatusForbidden && call.method == http.MethodPost &&
		bytes.Contains(result.body, []byte("No valid crumb")) {
		client.logger.Debug("crumb rejected, refreshing", "path", call.path)
		client.resetCrumb()
		result, err = client.send(ctx, call)
		if err != nil {
			return nil, err
		}
	}
	if result.statusCode < 200 || result.statusCode >= 300 {
		return nil, client.newAPIError(call, result)
	}
	return result, nil
}

// send performs one HTTP round trip without status handling.
func (client *Client) send(ctx context.Context, call request) (*response, error) {
	target := client.baseURL + call.path
	if len(call.query) > 0 {
		target += "?" + call.query.Encode()
	}

	httpRequest, err := http.NewRequestWithContext(ctx, call.method, target, bytes.NewReader(call.body))
	if err != nil {
		return nil, fmt.Errorf("jenkins: creating request: %w", err)
	}
	httpRequest.SetBasicAuth(client.user, client.token.String())
	httpRequest.Header.Set("User-Agent", version.UserAgent())
	if call.contentType != "" {
		httpRequest.Header.Set("Content-Type", call.contentType)
	}

	if call.method == http.MethodPost {
		issued, err := client.currentCrumb(ctx)
		if err != nil {
			return nil, err
		}
		if issued.field != "" {
			httpRequest.Header.Set(issued.field, issued.value)
		}
	}

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, &RequestError{Method: call.method, URL: target, Err: err}
	}
	defer httpResponse.Body.Close()

	var (
		data      []byte
		truncated bool
	)
	if call.partial {
		data, truncated, err = netutil.ReadPrefix(httpResponse.Body, client.maxBody)
	} else {
		data, err = netutil.ReadResponse(httpResponse.Body, client.maxBody)
	}
	if err != nil {
		return nil, &RequestError{Method: call.method, URL: target, Err: fmt.Errorf("reading response body: %w", err)}
	}

	client.logger.Debug("jenkins request",
		"method", call.method,
		"path", call.path,
		"status", httpResponse.StatusCode,
		"bytes", len(data),
		"truncated", truncated,
	)

	return &response{
		statusCode: httpResponse.StatusCode,
		header:     httpResponse.Header,
		body:       data,
		truncated:  truncated,
	}, nil
}

// currentCrumb returns the cached crumb, fetching it on first use.
func (client *Client) currentCrumb(ctx context.Context) (crumb, error) {
	client.crumbMu.Lock()
	defer client.crumbMu.Unlock()
	if client.crumb != nil {
		return *client.crumb, nil
	}

	result, err := client.send(ctx, request{method: http.MethodGet, path: "/crumbIssuer/api/json"})
	if err != nil {
		return crumb{}, err
	}
	switch {
	case result.statusCode == http.StatusNotFound:
		client.crumb = &crumb{}
	case result.statusCode >= 200 && result.statusCode < 300:
		var wire struct {
			Crumb             string `json:"crumb"`
			CrumbRequestField string `json:"crumbRequestField"`
		}
		if err := json.Unmarshal(result.body, &wire); err != nil {
			return crumb{}, fmt.Errorf("jenkins: decoding crumb: %w", err)
		}
		client.crumb = &crumb{field: wire.CrumbRequestField, value: wire.Crumb}
	default:
		return crumb{}, client.newAPIError(request{method: http.MethodGet, path: "/crumbIssuer/api/json"}, result)
	}
	return *client.crumb, nil
}

func (client *Client) resetCrumb() {
	client.crumbMu.Lock()
	defer client.crumbMu.Unlock()
	client.crumb = nil
}

// getJSON issues a GET and decodes the JSON body into result.
func (client *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	response, err := client.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(response.body, result); err != nil {
		return fmt.Errorf("jenkins: decoding %s: %w", path, err)
	}
	return nil
}

// postForm issues a form-encoded POST.
func (client *Client) postForm(ctx context.Context, path string, form url.Values) (*response, error) {
	return client.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
}

// newAPIError builds an *APIError and, when configured, saves the
// response body to the failure log directory.
func (client *Client) newAPIError(call request, result *response) *APIError {
	apiError := &APIError{
		Method:     call.method,
		URL:        client.baseURL + call.path,
		StatusCode: result.statusCode,
		Message:    errorMessage(result.header, result.body),
	}
	if client.failureLogDir != "" && len(result.body) > 0 {
		path, err := client.writeFailureLog(call.path, result.statusCode, result.body)
		if err != nil {
			client.logger.Warn("saving failure response", "path", call.path, "error", err)
		} else {
			apiError.LogFile = path
		}
	}
	return apiError
}

// writeFailureLog stores body as {dir}/{path}_{status}_log.html.
func (client *Client) writeFailureLog(requestPath string, statusCode int, body []byte) (string, error) {
	if err := os.MkdirAll(client.failureLogDir, 0o755); err != nil {
		return "", err
	}
	name := strings.Trim(requestPath, "/")
	name = strings.NewReplacer("/", "_", ".", "_", "?", "_", "&", "_").Replace(name)
	if name == "" {
		name = "root"
	}
	path := filepath.Join(client.failureLogDir, fmt.Sprintf("%s_%d_log.html", name, statusCode))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
