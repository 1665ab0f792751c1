// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"text/template"
)

//go:embed templates/pipeline.xml.tmpl
var defaultTemplateText string

// xmlDeclaration matches a leading <?xml ...?>. encoding/xml only
// understands version 1.0 and Jenkins writes 1.1, so the declaration
// is skipped when checking well-formedness.
var xmlDeclaration = regexp.MustCompile(`^\s*<\?xml[^?]*\?>`)

// legacyPlaceholder is the script placeholder of Jinja-style job
// templates.
var legacyPlaceholder = regexp.MustCompile(`\{\{\s*jenkinsfile\s*\|\s*forceescape\(\)\s*\}\}`)

// Parameter is a string parameter definition in the job.
type Parameter struct {
	Name    string
	Default string
}

// Definition is everything a template can reference.
type Definition struct {
	// Script is the pipeline source, embedded verbatim (escaped).
	Script string

	// Description is HTML shown on the job page.
	Description string

	// Parameters become StringParameterDefinitions.
	Parameters []Parameter

	// Sandbox runs the script in the Groovy sandbox.
	Sandbox bool
}

// Template renders job config.xml documents.
type Template struct {
	name     string
	compiled *template.Template
}

var templateFuncs = template.FuncMap{
	"xml":     escapeXML,
	"xmlattr": escapeXML,
}

// DefaultTemplate returns the built-in pipeline job template.
func DefaultTemplate() *Template {
	parsed, err := ParseTemplate("builtin", defaultTemplateText)
	if err != nil {
		panic(fmt.Sprintf("jobconfig: built-in template: %v", err))
	}
	return parsed
}

// ParseTemplate compiles a template. The legacy Jinja script
// placeholder is rewritten to {{ xml .Script }} first.
func ParseTemplate(name, text string) (*Template, error) {
	text = legacyPlaceholder.ReplaceAllString(text, "{{ xml .Script }}")
	compiled, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing job template %s: %w", name, err)
	}
	return &Template{name: name, compiled: compiled}, nil
}

// LoadTemplate reads and compiles a template file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job template: %w", err)
	}
	return ParseTemplate(path, string(data))
}

// Name identifies the template in logs: "builtin" or the file path.
func (t *Template) Name() string {
	return t.name
}

// Render executes the template and checks the result is well-formed
// XML, so a broken custom template fails locally instead of as an
// opaque 500 from Jenkins.
func (t *Template) Render(definition Definition) ([]byte, error) {
	var buffer bytes.Buffer
	if err := t.compiled.Execute(&buffer, definition); err != nil {
		return nil, fmt.Errorf("rendering job template %s: %w", t.name, err)
	}
	if err := checkWellFormed(buffer.Bytes()); err != nil {
		return nil, fmt.Errorf("job template %s produced invalid XML: %w", t.name, err)
	}
	return buffer.Bytes(), nil
}

// escapeXML escapes text for element content and attribute values.
func escapeXML(text string) (string, error) {
	var buffer bytes.Buffer
	if err := xml.EscapeText(&buffer, []byte(text)); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// checkWellFormed walks every token of document.
func checkWellFormed(document []byte) error {
	body := xmlDeclaration.ReplaceAll(document, nil)
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = true
	for {
		_, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
