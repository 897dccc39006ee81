package processing

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/teilomillet/taskgate/config"
	"github.com/teilomillet/taskgate/errors"
)

const defaultTemplateName = "default"

// Processor builds prompts from templates and calls the inference client.
// Templates are compiled once in NewProcessor so a bad template fails at
// startup rather than on the first request.
type Processor struct {
	client    Inference
	templates map[string]*template.Template
}

// NewProcessor compiles the configured request templates. A "default"
// template is always present; the passthrough task is never templated.
func NewProcessor(cfg config.ProcessingConfig, client Inference) (*Processor, error) {
	if client == nil {
		return nil, fmt.Errorf("inference client is required")
	}

	sources := map[string]string{defaultTemplateName: config.DefaultTemplate}
	for name, src := range cfg.RequestTemplates {
		sources[name] = src
	}

	templates := make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		t, err := template.New(name).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}

	return &Processor{
		client:    client,
		templates: templates,
	}, nil
}

// BuildPrompt returns the prompt for req. The passthrough task forwards the
// content verbatim; other tasks use their own template or "default".
func (p *Processor) BuildPrompt(req Request) (string, error) {
	if req.Task == config.PassthroughTask {
		return req.Content, nil
	}

	tmpl, ok := p.templates[req.Task]
	if !ok {
		tmpl = p.templates[defaultTemplateName]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		return "", errors.NewValueError(fmt.Errorf("template execution failed: %w", err))
	}
	return buf.String(), nil
}

// Process builds the prompt and calls the inference client once. A failed
// call becomes a 503 http_error carrying the client's error text.
func (p *Processor) Process(ctx context.Context, req Request) (*Response, error) {
	prompt, err := p.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	result := p.client.ProcessRequest(ctx, prompt)
	if !result.Success {
		return nil, errors.NewHTTPError(http.StatusServiceUnavailable, result.Error)
	}

	return &Response{
		Result:     result.Response,
		Model:      result.Model,
		TokensUsed: WordCount(req.Content) + WordCount(result.Response),
	}, nil
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
