// Package generator turns a topic into a structured document-plus-issues result
// by rendering the prompt, calling a completion executor and decoding the answer.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/futureCreator/docgen/internal/executor"
	vlog "github.com/futureCreator/docgen/internal/log"
	"github.com/futureCreator/docgen/internal/types"
)

// ErrEmptyResponse is returned when the backend answers with no text.
var ErrEmptyResponse = errors.New("empty completion")

// Error is a failed generation for one topic.
type Error struct {
	Topic string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generating %q: %v", e.Topic, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether the underlying failure looks transient
// (rate limit or provider-side error). Nothing retries on it yet.
func (e *Error) Temporary() bool {
	var t interface{ Temporary() bool }
	return errors.As(e.Err, &t) && t.Temporary()
}

// Generator renders the document prompt for a topic and decodes the completion.
type Generator struct {
	executor executor.Executor
	model    string
	prompt   *template.Template
	logger   *slog.Logger
}

// New parses promptTemplate (text/template with a .Topic field).
func New(exec executor.Executor, model, promptTemplate string, logger *slog.Logger) (*Generator, error) {
	if exec == nil {
		return nil, errors.New("generator: executor is required")
	}
	tmpl, err := template.New("document").Option("missingkey=error").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Generator{
		executor: exec,
		model:    model,
		prompt:   tmpl,
		logger:   vlog.OrDiscard(logger),
	}, nil
}

// Render returns the instruction sent for topic.
func (g *Generator) Render(topic string) (string, error) {
	var sb strings.Builder
	if err := g.prompt.Execute(&sb, struct{ Topic string }{topic}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}

// Generate makes exactly one completion call for topic. Any executor failure
// is returned as *Error; an undecodable answer is not a failure and comes
// back as a raw result.
func (g *Generator) Generate(ctx context.Context, topic string) (*types.Generation, error) {
	prompt, err := g.Render(topic)
	if err != nil {
		return nil, &Error{Topic: topic, Err: err}
	}

	res, err := g.executor.Execute(ctx, &executor.Request{
		Model:  g.model,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, &Error{Topic: topic, Err: err}
	}
	if strings.TrimSpace(res.Output) == "" {
		return nil, &Error{Topic: topic, Err: ErrEmptyResponse}
	}

	result := types.Decode(res.Output)
	if result.Kind == types.KindRaw {
		g.logger.Warn("completion is not structured, keeping raw text", "topic", topic, "bytes", len(res.Output))
	}

	return &types.Generation{
		Result:    result,
		Model:     g.model,
		Cost:      res.Cost,
		TokensIn:  res.TokensIn,
		TokensOut: res.TokensOut,
		Duration:  res.Duration,
	}, nil
}
