// Package scrape fetches a job posting page and reduces it to plain text.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PageFetcher returns the visible text of the page at rawURL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Options configures a Fetcher.
type Options struct {
	UserAgent string
	MaxBytes  int64 // response body cap; defaults to 5 MiB
}

const defaultMaxBytes = 5 << 20

// Fetcher routes a job URL to the best source for its text: the public
// posting API for Greenhouse and Lever boards, plain HTML for everything else.
type Fetcher struct {
	greenhouse *GreenhouseFetcher
	lever      *LeverFetcher
	html       *HTMLFetcher
}

// NewFetcher builds a Fetcher sharing one HTTP client across sources.
func NewFetcher(client *http.Client, opts Options) *Fetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &Fetcher{
		greenhouse: NewGreenhouseFetcher(client, opts),
		lever:      NewLeverFetcher(client, opts),
		html:       NewHTMLFetcher(client, opts),
	}
}

// Fetch validates rawURL and delegates to the matching source.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := parseJobURL(rawURL)
	if err != nil {
		return "", err
	}

	switch {
	case f.greenhouse.Supports(u):
		return f.greenhouse.Fetch(ctx, u.String())
	case f.lever.Supports(u):
		return f.lever.Fetch(ctx, u.String())
	default:
		return f.html.Fetch(ctx, u.String())
	}
}

// parseJobURL accepts only absolute http(s) URLs.
func parseJobURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("job url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse job url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("job url %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("job url %q: missing host", rawURL)
	}
	return u, nil
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
