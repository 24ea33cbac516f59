package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/amishk599/coldreach/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDraft() model.EmailDraft {
	return model.EmailDraft{
		JobURL: "https://jobs.example.com/42",
		Job: model.JobPosting{
			Role:       "Backend Engineer",
			Experience: "3+ years",
			Skills:     []string{"Python", "Django"},
		},
		Links: []string{"https://example.com/python-portfolio", "https://example.com/django-portfolio"},
		Body:  "Subject: Backend help\n\nDear team, ...",
	}
}

func TestSlackNotifier_SingleDraft(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	if err := n.Notify(context.Background(), sampleDraft()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "✉️ Draft ready: Backend Engineer" {
		t.Errorf("header text = %q", header.Text.Text)
	}

	skillsField := payload.Blocks[1].Fields[1]
	if skillsField.Text != "*Skills:*\nPython, Django" {
		t.Errorf("skills field = %q", skillsField.Text)
	}

	if !strings.Contains(payload.Blocks[2].Text.Text, "• https://example.com/python-portfolio") {
		t.Errorf("links block = %q", payload.Blocks[2].Text.Text)
	}
	if !strings.Contains(payload.Blocks[3].Text.Text, "Dear team") {
		t.Errorf("body block = %q", payload.Blocks[3].Text.Text)
	}

	actionURL := payload.Blocks[4].Elements[0].URL
	if actionURL != "https://jobs.example.com/42" {
		t.Errorf("action URL = %q", actionURL)
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleDraft()); err == nil {
		t.Error("expected error on 500, got nil")
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := calls.Add(1)
		if c == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleDraft()); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_RateLimitedCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	done := make(chan error, 1)
	go func() { done <- n.Notify(ctx, sampleDraft()) }()
	cancel()

	if err := <-done; err == nil {
		t.Error("expected error after cancellation, got nil")
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	draft := model.EmailDraft{
		Body: strings.Repeat("x", 5000),
		// no URL, no links, no skills
	}

	if err := n.Notify(context.Background(), draft); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// header, fields, links, body, divider (no actions without a URL)
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Text.Text != "✉️ Draft ready: -" {
		t.Errorf("header = %q", payload.Blocks[0].Text.Text)
	}
	if payload.Blocks[1].Fields[1].Text != "*Skills:*\n-" {
		t.Errorf("skills field = %q", payload.Blocks[1].Fields[1].Text)
	}
	if !strings.Contains(payload.Blocks[2].Text.Text, "no portfolio links matched") {
		t.Errorf("links block = %q", payload.Blocks[2].Text.Text)
	}
	if n := len([]rune(payload.Blocks[3].Text.Text)); n > 3000 {
		t.Errorf("body block has %d chars, Slack allows 3000", n)
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("last block type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSendTestMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := SendTestMessage(context.Background(), n); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls.Load())
	}
}
