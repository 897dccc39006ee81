package config

import (
	"fmt"
	"text/template"
)

// PassthroughTask is the task whose content is already a complete prompt.
const PassthroughTask = "gtd-clarification"

// DefaultTemplate wraps the task name and content for every other task.
const DefaultTemplate = `Please perform the following task: {{.Task}}

Content:
{{.Content}}`

// ProcessingConfig defines how prompts are built from incoming requests
type ProcessingConfig struct {
	// RequestTemplates maps task names to text/template sources. The
	// "default" entry is used for tasks without their own template.
	// The passthrough task is never templated.
	RequestTemplates map[string]string `yaml:"request_templates"`
}

// DefaultProcessingConfig returns the built-in prompt templates.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		RequestTemplates: map[string]string{
			"default": DefaultTemplate,
		},
	}
}

// Validate checks that every template parses.
func (p ProcessingConfig) Validate() error {
	for name, src := range p.RequestTemplates {
		if _, err := template.New(name).Parse(src); err != nil {
			return fmt.Errorf("invalid request template %q: %w", name, err)
		}
	}
	return nil
}
