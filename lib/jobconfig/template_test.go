// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderedJob is the part of config.xml the tests read back.
type renderedJob struct {
	XMLName     xml.Name `xml:"flow-definition"`
	Description string   `xml:"description"`
	Parameters  []struct {
		Name    string `xml:"name"`
		Default string `xml:"defaultValue"`
	} `xml:"properties>hudson.model.ParametersDefinitionProperty>parameterDefinitions>hudson.model.StringParameterDefinition"`
	Definition struct {
		Class   string `xml:"class,attr"`
		Script  string `xml:"script"`
		Sandbox bool   `xml:"sandbox"`
	} `xml:"definition"`
}

func decodeJob(t *testing.T, document []byte) renderedJob {
	t.Helper()
	var job renderedJob
	require.NoError(t, xml.Unmarshal(xmlDeclaration.ReplaceAll(document, nil), &job))
	return job
}

const smokeTestScript = `pipeline {
    agent any
    parameters { string(name: 'NAME') }
    stages {
        stage('greet') {
            steps { echo "Hi, ${params.NAME}" && sh 'test 1 -lt 2' }
        }
    }
}
`

func TestDefaultTemplateEmbedsScriptVerbatim(t *testing.T) {
	t.Parallel()

	document, err := DefaultTemplate().Render(Definition{
		Script:      smokeTestScript,
		Description: "<p>Smoke <em>test</em></p>",
		Sandbox:     true,
	})
	require.NoError(t, err)

	job := decodeJob(t, document)
	assert.Equal(t, smokeTestScript, job.Definition.Script)
	assert.Equal(t, "org.jenkinsci.plugins.workflow.cps.CpsFlowDefinition", job.Definition.Class)
	assert.True(t, job.Definition.Sandbox)
	assert.Equal(t, "<p>Smoke <em>test</em></p>", job.Description)
	assert.Empty(t, job.Parameters)
}

func TestDefaultTemplateParameters(t *testing.T) {
	t.Parallel()

	document, err := DefaultTemplate().Render(Definition{
		Script:     "pipeline {}",
		Parameters: ParameterDefinitions(map[string]string{"NAME": "alice", "GREETING": "<hi & bye>"}),
	})
	require.NoError(t, err)

	job := decodeJob(t, document)
	require.Len(t, job.Parameters, 2)
	assert.Equal(t, "GREETING", job.Parameters[0].Name)
	assert.Equal(t, "<hi & bye>", job.Parameters[0].Default)
	assert.Equal(t, "NAME", job.Parameters[1].Name)
	assert.Equal(t, "alice", job.Parameters[1].Default)
	assert.False(t, job.Definition.Sandbox)
}

func TestLegacyTemplatePlaceholder(t *testing.T) {
	t.Parallel()

	legacy := dedent.Dedent(`
		<?xml version='1.1' encoding='UTF-8'?>
		<flow-definition plugin="workflow-job@2.40">
		  <description></description>
		  <definition class="org.jenkinsci.plugins.workflow.cps.CpsFlowDefinition" plugin="workflow-cps@2.90">
		    <script>{{ jenkinsfile | forceescape() }}</script>
		    <sandbox>true</sandbox>
		  </definition>
		</flow-definition>
	`)
	path := filepath.Join(t.TempDir(), "template_job.xml")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	template, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, path, template.Name())

	document, err := template.Render(Definition{Script: `echo "a < b"`})
	require.NoError(t, err)
	assert.Equal(t, `echo "a < b"`, decodeJob(t, document).Definition.Script)
}

func TestRenderRejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	template, err := ParseTemplate("broken", "<flow-definition><script>{{ .Script }}</script></flow-definition>")
	require.NoError(t, err)

	// Unescaped script text breaks the document.
	_, err = template.Render(Definition{Script: "a < b && c"})
	assert.ErrorContains(t, err, "invalid XML")
}

func TestParseTemplateErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseTemplate("bad", "{{ .Script ")
	assert.Error(t, err)

	template, err := ParseTemplate("unknown-field", "<a>{{ .Nope }}</a>")
	require.NoError(t, err)
	_, err = template.Render(Definition{})
	assert.Error(t, err)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "absent.xml"))
	assert.Error(t, err)
}
