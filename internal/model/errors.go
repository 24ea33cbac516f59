package model

import (
	"errors"
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Failure classes. Every error produced by a pipeline stage wraps one of these.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrScrape           = errors.New("scrape error")
	ErrExtraction       = errors.New("extraction error")
	ErrComposition      = errors.New("composition error")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Stage names a step of the generation pipeline.
type Stage string

const (
	StageConfig  Stage = "config"
	StageScrape  Stage = "scrape"
	StageExtract Stage = "extract"
	StageMatch   Stage = "match"
	StageCompose Stage = "compose"
)

// StageError is the terminal failure of a pipeline run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
