// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import "strings"

// Job classes as reported in the "_class" field.
const (
	ClassPipelineJob = "org.jenkinsci.plugins.workflow.job.WorkflowJob"
	ClassFolder      = "com.cloudbees.hudson.plugins.folder.Folder"
)

// Job is the subset of a job's api/json that jenkdo reads.
type Job struct {
	Class           string `json:"_class"`
	Name            string `json:"name"`
	FullName        string `json:"fullName"`
	URL             string `json:"url"`
	Buildable       bool   `json:"buildable"`
	InQueue         bool   `json:"inQueue"`
	NextBuildNumber int64  `json:"nextBuildNumber"`
}

// IsPipeline reports whether the job is a pipeline job whose script can
// be replaced through config.xml.
func (job *Job) IsPipeline() bool {
	return job.Class == ClassPipelineJob
}

// IsFolder reports whether the job is a folder-like container
// (folder, organization folder, multibranch project).
func (job *Job) IsFolder() bool {
	return job.Class == ClassFolder ||
		strings.HasSuffix(job.Class, "OrganizationFolder") ||
		strings.HasSuffix(job.Class, "WorkflowMultiBranchProject")
}

// Kind returns a short description of the job class for messages:
// the final dotted component, e.g. "FreeStyleProject".
func (job *Job) Kind() string {
	if index := strings.LastIndexByte(job.Class, '.'); index >= 0 {
		return job.Class[index+1:]
	}
	if job.Class == "" {
		return "unknown"
	}
	return job.Class
}

// QueueItem is a pending build request.
type QueueItem struct {
	ID         int64            `json:"id"`
	Cancelled  bool             `json:"cancelled"`
	Blocked    bool             `json:"blocked"`
	Buildable  bool             `json:"buildable"`
	Stuck      bool             `json:"stuck"`
	Why        string           `json:"why"`
	Executable *QueueExecutable `json:"executable"`
}

// QueueExecutable is the build a queue item turned into.
type QueueExecutable struct {
	Number int64  `json:"number"`
	URL    string `json:"url"`
}

// Build results reported in Build.Result.
const (
	ResultSuccess  = "SUCCESS"
	ResultFailure  = "FAILURE"
	ResultUnstable = "UNSTABLE"
	ResultAborted  = "ABORTED"
	ResultNotBuilt = "NOT_BUILT"
)

// Build is the subset of a build's api/json that jenkdo reads. Result
// is empty while the build runs.
type Build struct {
	Number          int64  `json:"number"`
	URL             string `json:"url"`
	FullDisplayName string `json:"fullDisplayName"`
	Building        bool   `json:"building"`
	Result          string `json:"result"`
	Duration        int64  `json:"duration"`
	Timestamp       int64  `json:"timestamp"`
}

// ConsoleChunk is one progressive-text response. Text covers the log
// bytes [Size-len(Text), Size), and never starts after Start.
type ConsoleChunk struct {
	// Start is the offset that was requested.
	Start int64

	// Size is the X-Text-Size header: the log offset just past Text,
	// and the start to request next.
	Size int64

	// Text is the raw body, byte for byte.
	Text []byte

	// More is the X-More-Data header: the log is still growing.
	More bool

	// Truncated is set when the body was longer than the client's
	// response limit and Text holds only its first part. Size is then
	// Start+len(Text) and More is set.
	Truncated bool
}

// Validation is the result of the declarative pipeline validator.
type Validation struct {
	// Valid is true when the validator reported success.
	Valid bool

	// Errors holds each error string the validator returned, in order.
	Errors []string
}

// User is the authenticated user as reported by /me/api/json.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}
