// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ValidatePipeline sends a declarative pipeline to the Pipeline Model
// Definition plugin's validator. A pipeline with errors is not an error
// return: it comes back as Validation{Valid: false} with one entry per
// reported error.
func (client *Client) ValidatePipeline(ctx context.Context, script string) (*Validation, error) {
	response, err := client.postForm(ctx, "/pipeline-model-converter/validateJenkinsfile",
		url.Values{"jenkinsfile": {script}})
	if err != nil {
		return nil, err
	}

	var wire struct {
		Status string `json:"status"`
		Data   struct {
			Result string            `json:"result"`
			Errors []json.RawMessage `json:"errors"`
			Error  string            `json:"error"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response.body, &wire); err != nil {
		return nil, fmt.Errorf("jenkins: decoding validation response: %w", err)
	}
	if wire.Status != "ok" {
		return nil, fmt.Errorf("jenkins: validator returned status %q: %s", wire.Status, wire.Data.Error)
	}

	validation := &Validation{Valid: wire.Data.Result == "success"}
	for _, raw := range wire.Data.Errors {
		messages, err := validationMessages(raw)
		if err != nil {
			return nil, err
		}
		validation.Errors = append(validation.Errors, messages...)
	}
	if !validation.Valid && len(validation.Errors) == 0 {
		validation.Errors = []string{"validation failed without details"}
	}
	return validation, nil
}

// validationMessages decodes one entry of the validator's errors array.
// Entries are {"error": "..."} or {"error": ["...", "..."]}.
func validationMessages(raw json.RawMessage) ([]string, error) {
	var entry struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("jenkins: decoding validation error entry: %w", err)
	}
	var single string
	if json.Unmarshal(entry.Error, &single) == nil {
		return []string{single}, nil
	}
	var multiple []string
	if err := json.Unmarshal(entry.Error, &multiple); err != nil {
		return nil, fmt.Errorf("jenkins: unrecognised validation error entry %s", raw)
	}
	return multiple, nil
}
