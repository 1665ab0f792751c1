// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"fmt"
	"net/url"
	"strings"
)

// JobPath maps a job name with folder segments to its URL path:
// "team/app" becomes "/job/team/job/app".
func JobPath(name string) string {
	var builder strings.Builder
	for _, segment := range strings.Split(strings.Trim(name, "/"), "/") {
		if segment == "" {
			continue
		}
		builder.WriteString("/job/")
		builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}

// SplitJobName separates the parent folder from the leaf name:
// "team/app" gives ("team", "app"); "app" gives ("", "app").
func SplitJobName(name string) (parent, leaf string) {
	trimmed := strings.Trim(name, "/")
	index := strings.LastIndexByte(trimmed, '/')
	if index < 0 {
		return "", trimmed
	}
	return trimmed[:index], trimmed[index+1:]
}

// buildPath returns the URL path of one build of a job.
func buildPath(job string, number int64) string {
	return fmt.Sprintf("%s/%d", JobPath(job), number)
}

// validateJobName rejects names Jenkins would not accept as a job path.
func validateJobName(name string) error {
	trimmed := strings.Trim(name, "/")
	if trimmed == "" {
		return fmt.Errorf("jenkins: empty job name")
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("jenkins: invalid job name %q", name)
		}
		if strings.ContainsAny(segment, `?*\:<>|"#%&;[]^`) {
			return fmt.Errorf("jenkins: job name %q contains an unsafe character", name)
		}
	}
	return nil
}
