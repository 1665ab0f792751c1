// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// jobTree limits the job api/json response to the fields in Job.
const jobTree = "_class,name,fullName,url,buildable,inQueue,nextBuildNumber"

// GetJob fetches a job's metadata. Returns an *APIError with status 404
// when the job does not exist.
func (client *Client) GetJob(ctx context.Context, name string) (*Job, error) {
	if err := validateJobName(name); err != nil {
		return nil, err
	}
	var job Job
	query := url.Values{"tree": {jobTree}}
	if err := client.getJSON(ctx, JobPath(name)+"/api/json", query, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob creates a job from configXML. Folder segments in name must
// already exist. Jenkins answers 400 with an X-Error header when a job
// with that name exists.
func (client *Client) CreateJob(ctx context.Context, name string, configXML []byte) error {
	if err := validateJobName(name); err != nil {
		return err
	}
	parent, leaf := SplitJobName(name)
	_, err := client.do(ctx, request{
		method:      http.MethodPost,
		path:        JobPath(parent) + "/createItem",
		query:       url.Values{"name": {leaf}},
		body:        configXML,
		contentType: "application/xml",
	})
	if err != nil {
		return fmt.Errorf("creating job %q: %w", name, err)
	}
	return nil
}

// UpdateJobConfig replaces a job's config.xml.
func (client *Client) UpdateJobConfig(ctx context.Context, name string, configXML []byte) error {
	if err := validateJobName(name); err != nil {
		return err
	}
	_, err := client.do(ctx, request{
		method:      http.MethodPost,
		path:        JobPath(name) + "/config.xml",
		body:        configXML,
		contentType: "application/xml",
	})
	if err != nil {
		return fmt.Errorf("updating job %q: %w", name, err)
	}
	return nil
}

// DeleteJob deletes a job and its build history.
func (client *Client) DeleteJob(ctx context.Context, name string) error {
	if err := validateJobName(name); err != nil {
		return err
	}
	if _, err := client.do(ctx, request{method: http.MethodPost, path: JobPath(name) + "/doDelete"}); err != nil {
		return fmt.Errorf("deleting job %q: %w", name, err)
	}
	return nil
}
