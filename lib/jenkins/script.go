// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"context"
	"net/url"
)

// RunScript executes a Groovy script on the script console and returns
// its output. Script exceptions are part of the output, not an error:
// Jenkins still answers 200.
func (client *Client) RunScript(ctx context.Context, script string) (string, error) {
	response, err := client.postForm(ctx, "/scriptText", url.Values{"script": {script}})
	if err != nil {
		return "", err
	}
	return string(response.body), nil
}

// WhoAmI returns the user the credentials authenticate as.
func (client *Client) WhoAmI(ctx context.Context) (*User, error) {
	var user User
	if err := client.getJSON(ctx, "/me/api/json", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
