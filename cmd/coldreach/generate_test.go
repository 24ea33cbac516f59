package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/amishk599/coldreach/internal/model"
	"github.com/amishk599/coldreach/internal/pipeline"
)

func TestDraftOrError_Done(t *testing.T) {
	res := pipeline.Result{
		State: pipeline.StateDone,
		Draft: &model.EmailDraft{Body: "Dear team"},
	}

	draft, err := draftOrError(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Body != "Dear team" {
		t.Errorf("Body = %q", draft.Body)
	}
}

func TestDraftOrError_FailedReturnsStageError(t *testing.T) {
	res := pipeline.Result{
		State: pipeline.StateFailed,
		Err:   &model.StageError{Stage: model.StageScrape, Err: model.ErrScrape},
	}

	draft, err := draftOrError(res)
	if draft != nil {
		t.Errorf("expected no draft, got %+v", draft)
	}
	if !errors.Is(err, model.ErrScrape) {
		t.Fatalf("expected ErrScrape, got %v", err)
	}
	var stageErr *model.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != model.StageScrape {
		t.Errorf("expected scrape StageError, got %v", err)
	}
	if !strings.Contains(err.Error(), "(scrape)") {
		t.Errorf("error should name the failure class: %v", err)
	}
}

func TestDraftOrError_NoDraftWithoutError(t *testing.T) {
	if _, err := draftOrError(pipeline.Result{State: pipeline.StateComposed}); err == nil {
		t.Fatal("expected error for a run without a draft")
	}
}
