// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/jobconfig"
)

// JobDefinition is a pipeline job to publish.
type JobDefinition struct {
	// Name is the full job name; "/" separates folders.
	Name string

	// Script is the pipeline source, embedded verbatim.
	Script string

	// Description is HTML for the job page.
	Description string

	// Parameters are declared as string parameters with these defaults.
	Parameters map[string]string

	// Template renders config.xml. Nil uses the built-in template.
	Template *jobconfig.Template
}

// Render produces the job's config.xml.
func (definition JobDefinition) Render() ([]byte, error) {
	template := definition.Template
	if template == nil {
		template = jobconfig.DefaultTemplate()
	}
	return template.Render(jobconfig.Definition{
		Script:      definition.Script,
		Description: definition.Description,
		Parameters:  jobconfig.ParameterDefinitions(definition.Parameters),
		Sandbox:     true,
	})
}

// PublishAction says what Publish did to the server.
type PublishAction string

const (
	PublishCreated  PublishAction = "created"
	PublishUpdated  PublishAction = "updated"
	PublishReplaced PublishAction = "replaced"
)

// PublishOutcome describes a successful publish.
type PublishOutcome struct {
	Action PublishAction `json:"action"`

	// Digest identifies the config.xml that was sent.
	Digest string `json:"digest"`
}

// Publisher creates or overwrites pipeline jobs.
type Publisher struct {
	config Config
}

// NewPublisher returns a Publisher.
func NewPublisher(config Config) *Publisher {
	return &Publisher{config: config.withDefaults()}
}

// Publish makes the server's job match definition. An absent job is
// created; an existing pipeline job has its config.xml overwritten
// unconditionally. With Force any existing job other than a folder is
// deleted and recreated instead. Without Force, a name held by another
// kind of job is a KindPublishConflict; a folder always is.
func (p *Publisher) Publish(ctx context.Context, definition JobDefinition) (PublishOutcome, error) {
	client := p.config.Client
	name := strings.Trim(definition.Name, "/")
	fail := func(err error) (PublishOutcome, error) {
		return PublishOutcome{}, classify(StagePublish, name, client.BaseURL(), err)
	}

	configXML, err := definition.Render()
	if err != nil {
		return fail(err)
	}
	outcome := PublishOutcome{Digest: jobconfig.Digest(configXML)}
	logger := p.config.Logger.With("job", name, "digest", outcome.Digest)

	existing, err := client.GetJob(ctx, name)
	switch {
	case jenkins.IsNotFound(err):
		existing = nil
	case err != nil:
		return fail(err)
	case existing.IsFolder() || (!existing.IsPipeline() && !p.config.Force):
		return PublishOutcome{}, &Error{
			Kind:   KindPublishConflict,
			Stage:  StagePublish,
			Job:    name,
			Server: client.BaseURL(),
			Err:    fmt.Errorf("%q is a %s, not a pipeline job", name, existing.Kind()),
		}
	}

	if existing != nil && existing.IsPipeline() && !p.config.Force {
		logger.Debug("overwriting job config")
		if err := client.UpdateJobConfig(ctx, name, configXML); err != nil {
			return fail(err)
		}
		outcome.Action = PublishUpdated
		p.report(name, "Job '%s' updated", name)
		return outcome, nil
	}

	if existing != nil {
		logger.Debug("deleting job before recreating it")
		if err := client.DeleteJob(ctx, name); err != nil && !jenkins.IsNotFound(err) {
			return fail(err)
		}
		p.report(name, "Job '%s' deleted", name)
		outcome.Action = PublishReplaced
	} else {
		outcome.Action = PublishCreated
	}

	err = client.CreateJob(ctx, name, configXML)
	switch {
	case err == nil:
		p.report(name, "Job '%s' created", name)
		return outcome, nil
	case jenkins.IsBadRequest(err) && strings.Contains(err.Error(), "already exists"):
		// Another client created it between GetJob and createItem.
		logger.Debug("lost create race, overwriting")
		if err := client.UpdateJobConfig(ctx, name, configXML); err != nil {
			return fail(err)
		}
		outcome.Action = PublishUpdated
		p.report(name, "Job '%s' updated", name)
		return outcome, nil
	case jenkins.IsNotFound(err):
		parent, _ := jenkins.SplitJobName(name)
		return fail(fmt.Errorf("folder %q does not exist: %w", parent, err))
	default:
		return fail(err)
	}
}

func (p *Publisher) report(job, format string, args ...any) {
	p.config.Reporter.Report(Event{
		Stage:   StagePublish,
		Level:   LevelSuccess,
		Job:     job,
		Message: fmt.Sprintf(format, args...),
	})
}
