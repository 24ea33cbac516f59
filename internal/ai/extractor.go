package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/amishk599/coldreach/internal/model"
)

const extractSystemPrompt = "You are a precise structured data extractor for job postings."

// requiredJobKeys are the keys the extraction response must contain.
var requiredJobKeys = []string{"role", "experience", "skills", "description"}

// JobExtractor turns scraped page text into a model.JobPosting using an LLM.
type JobExtractor struct {
	provider Provider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewJobExtractor creates an extractor rendering prompts with tmpl.
func NewJobExtractor(provider Provider, tmpl *template.Template, logger *slog.Logger) *JobExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JobExtractor{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Extract makes exactly one LLM call. Every failure wraps model.ErrExtraction;
// a posting is returned only when all four fields validated.
func (e *JobExtractor) Extract(ctx context.Context, pageText string) (model.JobPosting, error) {
	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, struct{ PageText string }{PageText: pageText}); err != nil {
		return model.JobPosting{}, fmt.Errorf("%w: render prompt: %w", model.ErrExtraction, err)
	}

	e.logger.Debug("extract job request", "prompt_length", utf8.RuneCount(promptBuf.Bytes()))

	raw, err := e.provider.Complete(ctx, Request{
		System: extractSystemPrompt,
		Prompt: promptBuf.String(),
		JSON:   true,
	})
	if err != nil {
		return model.JobPosting{}, fmt.Errorf("%w: llm complete: %w", model.ErrExtraction, err)
	}

	e.logger.Debug("extract job response", "response_length", utf8.RuneCountInString(raw))

	job, err := parseJob(raw)
	if err != nil {
		return model.JobPosting{}, fmt.Errorf("%w: %w", model.ErrExtraction, err)
	}
	return job, nil
}

// parseJob validates the LLM response against the four-key job schema.
func parseJob(raw string) (model.JobPosting, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fields); err != nil {
		return model.JobPosting{}, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if fields == nil {
		return model.JobPosting{}, fmt.Errorf("response is not a JSON object")
	}

	var missing []string
	for _, key := range requiredJobKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return model.JobPosting{}, fmt.Errorf("response is missing required keys: %s", strings.Join(missing, ", "))
	}

	var job model.JobPosting
	var err error
	if job.Role, err = decodeString(fields["role"]); err != nil {
		return model.JobPosting{}, fmt.Errorf("role: %w", err)
	}
	if job.Description, err = decodeString(fields["description"]); err != nil {
		return model.JobPosting{}, fmt.Errorf("description: %w", err)
	}
	if job.Experience, err = decodeExperience(fields["experience"]); err != nil {
		return model.JobPosting{}, fmt.Errorf("experience: %w", err)
	}
	if job.Skills, err = decodeSkills(fields["skills"]); err != nil {
		return model.JobPosting{}, fmt.Errorf("skills: %w", err)
	}
	return job, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("expected a string, got null")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected a string, got %s", raw)
	}
	return strings.TrimSpace(s), nil
}

// decodeExperience accepts a string or a bare number ("5" years).
func decodeExperience(raw json.RawMessage) (string, error) {
	if s, err := decodeString(raw); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("expected a string, got %s", raw)
}

func decodeSkills(raw json.RawMessage) ([]string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("expected an array of strings, got null")
	}
	var skills []string
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil, fmt.Errorf("expected an array of strings, got %s", raw)
	}

	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
