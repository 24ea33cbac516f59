package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"unicode/utf8"

	"github.com/amishk599/coldreach/internal/model"
)

// Persona is the fixed sender the composed emails are written as.
type Persona struct {
	Name    string
	Role    string
	Company string
}

// DefaultPersona is used when no sender is configured.
var DefaultPersona = Persona{
	Name:    "Mohan",
	Role:    "business development executive",
	Company: "AtliQ",
}

// EmailComposer writes the outreach email for a job and its matched links.
type EmailComposer struct {
	provider Provider
	tmpl     *template.Template
	persona  Persona
	logger   *slog.Logger
}

// NewEmailComposer creates a composer writing as persona.
func NewEmailComposer(provider Provider, tmpl *template.Template, persona Persona, logger *slog.Logger) *EmailComposer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EmailComposer{
		provider: provider,
		tmpl:     tmpl,
		persona:  persona,
		logger:   logger,
	}
}

type composeVars struct {
	Job        string
	Links      []string
	SenderName string
	SenderRole string
	Company    string
}

// Compose makes exactly one LLM call and returns its text verbatim as the
// draft body. Failures wrap model.ErrComposition.
func (c *EmailComposer) Compose(ctx context.Context, job model.JobPosting, links []string) (model.EmailDraft, error) {
	var promptBuf bytes.Buffer
	err := c.tmpl.Execute(&promptBuf, composeVars{
		Job:        job.String(),
		Links:      links,
		SenderName: c.persona.Name,
		SenderRole: c.persona.Role,
		Company:    c.persona.Company,
	})
	if err != nil {
		return model.EmailDraft{}, fmt.Errorf("%w: render prompt: %w", model.ErrComposition, err)
	}

	c.logger.Debug("compose email request",
		"prompt_length", utf8.RuneCount(promptBuf.Bytes()),
		"links", len(links),
	)

	body, err := c.provider.Complete(ctx, Request{Prompt: promptBuf.String()})
	if err != nil {
		return model.EmailDraft{}, fmt.Errorf("%w: llm complete: %w", model.ErrComposition, err)
	}

	return model.EmailDraft{
		Job:   job,
		Links: links,
		Body:  body,
	}, nil
}
