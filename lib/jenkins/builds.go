// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// queueLocationPattern extracts the queue item ID from the Location
// header of an accepted build request.
var queueLocationPattern = regexp.MustCompile(`/queue/item/(\d+)/?$`)

// TriggerBuild requests a build of job and returns the queue item ID.
// With params the request goes to buildWithParameters as a form body;
// without, to build. Jenkins answers 201 Created with a Location header
// pointing at the queue item.
func (client *Client) TriggerBuild(ctx context.Context, job string, params map[string]string) (int64, error) {
	if err := validateJobName(job); err != nil {
		return 0, err
	}
	path := JobPath(job) + "/build"
	form := url.Values{}
	if len(params) > 0 {
		path = JobPath(job) + "/buildWithParameters"
		for name, value := range params {
			form.Set(name, value)
		}
	}

	response, err := client.postForm(ctx, path, form)
	if err != nil {
		return 0, fmt.Errorf("triggering %q: %w", job, err)
	}

	location := response.header.Get("Location")
	match := queueLocationPattern.FindStringSubmatch(location)
	if match == nil {
		return 0, fmt.Errorf("jenkins: triggering %q: HTTP %d without a queue item Location (got %q)",
			job, response.statusCode, location)
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("jenkins: parsing queue item id %q: %w", match[1], err)
	}
	return id, nil
}

// GetQueueItem fetches a queue item. Jenkins keeps left items around
// for a few minutes, so a started build is still visible here with its
// Executable set.
func (client *Client) GetQueueItem(ctx context.Context, id int64) (*QueueItem, error) {
	var item QueueItem
	if err := client.getJSON(ctx, fmt.Sprintf("/queue/item/%d/api/json", id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CancelQueueItem removes a pending item from the queue.
func (client *Client) CancelQueueItem(ctx context.Context, id int64) error {
	query := url.Values{"id": {strconv.FormatInt(id, 10)}}
	if _, err := client.do(ctx, request{method: http.MethodPost, path: "/queue/cancelItem", query: query}); err != nil {
		return fmt.Errorf("cancelling queue item %d: %w", id, err)
	}
	return nil
}

// buildTree limits the build api/json response to the fields in Build.
const buildTree = "number,url,fullDisplayName,building,result,duration,timestamp"

// GetBuild fetches a build's status.
func (client *Client) GetBuild(ctx context.Context, job string, number int64) (*Build, error) {
	if err := validateJobName(job); err != nil {
		return nil, err
	}
	var build Build
	query := url.Values{"tree": {buildTree}}
	if err := client.getJSON(ctx, buildPath(job, number)+"/api/json", query, &build); err != nil {
		return nil, err
	}
	return &build, nil
}

// StopBuild asks Jenkins to abort a running build. The build reaches
// ABORTED asynchronously.
func (client *Client) StopBuild(ctx context.Context, job string, number int64) error {
	if err := validateJobName(job); err != nil {
		return err
	}
	if _, err := client.do(ctx, request{method: http.MethodPost, path: buildPath(job, number) + "/stop"}); err != nil {
		return fmt.Errorf("stopping %s #%d: %w", job, number, err)
	}
	return nil
}

// ProgressiveText fetches console text from offset start. A build that
// has left the queue but not yet opened its log answers 404; that is
// reported as an empty chunk at start with More set, not as an error.
// A body longer than the client's response limit is cut there and
// marked Truncated; the caller continues from the new Size.
func (client *Client) ProgressiveText(ctx context.Context, job string, number int64, start int64) (*ConsoleChunk, error) {
	if err := validateJobName(job); err != nil {
		return nil, err
	}
	response, err := client.do(ctx, request{
		method:  http.MethodGet,
		path:    buildPath(job, number) + "/logText/progressiveText",
		query:   url.Values{"start": {strconv.FormatInt(start, 10)}},
		partial: true,
	})
	if IsNotFound(err) {
		return &ConsoleChunk{Start: start, Size: start, More: true}, nil
	}
	if err != nil {
		return nil, err
	}

	chunk := &ConsoleChunk{
		Start: start,
		Size:  start + int64(len(response.body)),
		Text:  response.body,
		More:  response.header.Get("X-More-Data") == "true",
	}
	if header := response.header.Get("X-Text-Size"); header != "" {
		size, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("jenkins: parsing X-Text-Size %q: %w", header, err)
		}
		chunk.Size = size
	}
	if response.truncated {
		chunk.Size = start + int64(len(response.body))
		chunk.More = true
		chunk.Truncated = true
	}
	return chunk, nil
}
