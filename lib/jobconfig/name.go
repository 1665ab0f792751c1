// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"path/filepath"
	"strings"
)

// pipelineExtensions are stripped from file names to form job names.
var pipelineExtensions = []string{".groovy", ".jenkinsfile", ".Jenkinsfile"}

// NameFromPath derives a job name from a pipeline file path:
// "ci/smoke-test.groovy" gives "smoke-test". A file named just
// "Jenkinsfile" takes the name of its directory, so
// "services/api/Jenkinsfile" gives "api".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if base == "Jenkinsfile" || base == "jenkinsfile" {
		absolute, err := filepath.Abs(path)
		if err != nil {
			return base
		}
		return filepath.Base(filepath.Dir(absolute))
	}
	for _, extension := range pipelineExtensions {
		if trimmed, found := strings.CutSuffix(base, extension); found && trimmed != "" {
			return trimmed
		}
	}
	return base
}

// QualifiedName joins an optional folder and a job name: ("debug",
// "smoke-test") gives "debug/smoke-test".
func QualifiedName(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
