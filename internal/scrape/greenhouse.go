package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob is the Greenhouse single-job API response.
type greenhouseJob struct {
	ID       int64              `json:"id"`
	Title    string             `json:"title"`
	Location greenhouseLocation `json:"location"`
	Content  string             `json:"content"` // HTML-encoded HTML
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// GreenhouseFetcher reads postings hosted on Greenhouse boards through the
// public boards API, which returns the description without page chrome.
type GreenhouseFetcher struct {
	baseURL   string
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewGreenhouseFetcher creates a fetcher for Greenhouse job URLs.
func NewGreenhouseFetcher(client *http.Client, opts Options) *GreenhouseFetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &GreenhouseFetcher{
		baseURL:   greenhouseBaseURL,
		client:    client,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
	}
}

// Supports reports whether u is a Greenhouse posting URL
// (boards.greenhouse.io/{token}/jobs/{id} or job-boards.greenhouse.io/...).
func (f *GreenhouseFetcher) Supports(u *url.URL) bool {
	_, _, ok := greenhouseIDs(u)
	return ok
}

func greenhouseIDs(u *url.URL) (token, jobID string, ok bool) {
	host := strings.ToLower(u.Hostname())
	if host != "boards.greenhouse.io" && host != "job-boards.greenhouse.io" {
		return "", "", false
	}
	segs := pathSegments(u)
	if len(segs) < 3 || segs[1] != "jobs" {
		return "", "", false
	}
	return segs[0], segs[2], true
}

// Fetch returns title, location and description text of the posting.
func (f *GreenhouseFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse job url: %w", err)
	}
	token, jobID, ok := greenhouseIDs(u)
	if !ok {
		return "", fmt.Errorf("%s is not a greenhouse job url", rawURL)
	}

	apiURL := fmt.Sprintf("%s/%s/jobs/%s", f.baseURL, url.PathEscape(token), url.PathEscape(jobID))
	body, _, err := get(ctx, f.client, apiURL, f.userAgent, "application/json", f.maxBytes)
	if err != nil {
		return "", fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	var gj greenhouseJob
	if err := json.Unmarshal(body, &gj); err != nil {
		return "", fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	parts := []string{gj.Title}
	if gj.Location.Name != "" {
		parts = append(parts, "Location: "+gj.Location.Name)
	}
	parts = append(parts, extractTextString(html.UnescapeString(gj.Content)))
	return strings.Join(parts, "\n"), nil
}
