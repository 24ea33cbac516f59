// Package pipeline runs one job URL through scrape, extract, match and
// compose, producing either a cold email draft or a stage-tagged failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/coldreach/internal/ai"
	"github.com/amishk599/coldreach/internal/model"
)

// State is a step of the run state machine.
type State string

const (
	StateIdle      State = "idle"
	StateScraped   State = "scraped"
	StateExtracted State = "extracted"
	StateMatched   State = "matched"
	StateComposed  State = "composed"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Fetcher returns the visible text of a job page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Extractor turns page text into a structured job posting.
type Extractor interface {
	Extract(ctx context.Context, pageText string) (model.JobPosting, error)
}

// Matcher picks portfolio links for a list of skills.
type Matcher interface {
	Match(ctx context.Context, skills []string) ([]string, error)
}

// Composer writes the email for a job and its matched links.
type Composer interface {
	Compose(ctx context.Context, job model.JobPosting, links []string) (model.EmailDraft, error)
}

// Class groups stage failures into what a caller can act on.
type Class string

const (
	ClassNone          Class = ""
	ClassConfiguration Class = "configuration"
	ClassScrape        Class = "scrape"
	ClassModel         Class = "model"
	ClassStore         Class = "store"
)

// Result is the outcome of one run. Draft is set only when State is
// StateDone; Err only when State is StateFailed.
type Result struct {
	State State
	Draft *model.EmailDraft
	Err   *model.StageError
	Trace []State
}

// Class reports the failure class of a failed run, or ClassNone.
func (r Result) Class() Class {
	if r.Err == nil {
		return ClassNone
	}
	switch r.Err.Stage {
	case model.StageConfig:
		return ClassConfiguration
	case model.StageScrape:
		return ClassScrape
	case model.StageExtract, model.StageCompose:
		return ClassModel
	case model.StageMatch:
		return ClassStore
	default:
		return ClassNone
	}
}

// Orchestrator owns the run order. Each stage is attempted once; the first
// failure ends the run.
type Orchestrator struct {
	provider  ai.Provider
	fetcher   Fetcher
	extractor Extractor
	matcher   Matcher
	composer  Composer
	notifier  model.Notifier
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier delivers every composed draft to n. Delivery failures are
// logged and never change the run result.
func WithNotifier(n model.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// NewOrchestrator wires the stages. provider is only used for the
// configuration check that precedes every run.
func NewOrchestrator(
	provider ai.Provider,
	fetcher Fetcher,
	extractor Extractor,
	matcher Matcher,
	composer Composer,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{
		provider:  provider,
		fetcher:   fetcher,
		extractor: extractor,
		matcher:   matcher,
		composer:  composer,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type run struct {
	logger *slog.Logger
	start  time.Time
	result Result
}

func (r *run) advance(s State) {
	r.logger.Debug("pipeline transition",
		"from", r.result.State,
		"to", s,
		"elapsed", time.Since(r.start),
	)
	r.result.State = s
	r.result.Trace = append(r.result.Trace, s)
}

func (r *run) fail(stage model.Stage, class, err error) Result {
	if !errors.Is(err, class) {
		err = fmt.Errorf("%w: %w", class, err)
	}
	r.result.Err = &model.StageError{Stage: stage, Err: err}
	r.result.Draft = nil
	r.advance(StateFailed)
	r.logger.Warn("pipeline failed",
		"stage", stage,
		"error", err,
		"elapsed", time.Since(r.start),
	)
	return r.result
}

// Run executes the pipeline for one job URL.
func (o *Orchestrator) Run(ctx context.Context, jobURL string) Result {
	r := &run{
		logger: o.logger.With("url", jobURL),
		start:  time.Now(),
		result: Result{State: StateIdle, Trace: []State{StateIdle}},
	}

	if err := ai.CheckConnection(ctx, o.provider); err != nil {
		return r.fail(model.StageConfig, model.ErrConfiguration, err)
	}

	text, err := o.fetcher.Fetch(ctx, jobURL)
	if err != nil {
		return r.fail(model.StageScrape, model.ErrScrape, err)
	}
	r.advance(StateScraped)

	job, err := o.extractor.Extract(ctx, text)
	if err != nil {
		return r.fail(model.StageExtract, model.ErrExtraction, err)
	}
	r.advance(StateExtracted)

	links, err := o.matcher.Match(ctx, job.Skills)
	if err != nil {
		return r.fail(model.StageMatch, model.ErrStoreUnavailable, err)
	}
	r.advance(StateMatched)

	draft, err := o.composer.Compose(ctx, job, links)
	if err != nil {
		return r.fail(model.StageCompose, model.ErrComposition, err)
	}
	draft.JobURL = jobURL
	r.advance(StateComposed)

	r.result.Draft = &draft
	r.advance(StateDone)
	r.logger.Info("email composed",
		"role", job.Role,
		"skills", len(job.Skills),
		"links", len(links),
		"elapsed", time.Since(r.start),
	)

	if o.notifier != nil {
		if err := o.notifier.Notify(ctx, draft); err != nil {
			r.logger.Warn("draft delivery failed", "error", err)
		}
	}
	return r.result
}
