package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

type leverCategories struct {
	Team       string `json:"team"`
	Location   string `json:"location"`
	Commitment string `json:"commitment"`
}

type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"` // HTML list items
}

// leverJob is the Lever single-posting API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	AdditionalPlain  string          `json:"additionalPlain"`
	Categories       leverCategories `json:"categories"`
	Lists            []leverList     `json:"lists"`
}

// LeverFetcher reads postings hosted on jobs.lever.co through the public
// postings API.
type LeverFetcher struct {
	baseURL   string
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewLeverFetcher creates a fetcher for Lever job URLs.
func NewLeverFetcher(client *http.Client, opts Options) *LeverFetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &LeverFetcher{
		baseURL:   leverBaseURL,
		client:    client,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
	}
}

// Supports reports whether u is a Lever posting URL (jobs.lever.co/{company}/{id}).
func (f *LeverFetcher) Supports(u *url.URL) bool {
	_, _, ok := leverIDs(u)
	return ok
}

func leverIDs(u *url.URL) (company, postingID string, ok bool) {
	if strings.ToLower(u.Hostname()) != "jobs.lever.co" {
		return "", "", false
	}
	segs := pathSegments(u)
	if len(segs) < 2 {
		return "", "", false
	}
	return segs[0], segs[1], true
}

// Fetch returns the posting title, categories, description and lists as text.
func (f *LeverFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse job url: %w", err)
	}
	company, postingID, ok := leverIDs(u)
	if !ok {
		return "", fmt.Errorf("%s is not a lever job url", rawURL)
	}

	apiURL := fmt.Sprintf("%s/%s/%s", f.baseURL, url.PathEscape(company), url.PathEscape(postingID))
	body, _, err := get(ctx, f.client, apiURL, f.userAgent, "application/json", f.maxBytes)
	if err != nil {
		return "", fmt.Errorf("lever fetch for %s: %w", company, err)
	}

	var lj leverJob
	if err := json.Unmarshal(body, &lj); err != nil {
		return "", fmt.Errorf("lever fetch for %s: %w", company, err)
	}

	var b strings.Builder
	b.WriteString(lj.Text)
	for _, c := range []string{lj.Categories.Team, lj.Categories.Location, lj.Categories.Commitment} {
		if c != "" {
			b.WriteString("\n")
			b.WriteString(c)
		}
	}
	if lj.DescriptionPlain != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(lj.DescriptionPlain))
	}
	for _, l := range lj.Lists {
		b.WriteString("\n")
		b.WriteString(l.Text)
		b.WriteString(": ")
		b.WriteString(extractTextString(l.Content))
	}
	if lj.AdditionalPlain != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(lj.AdditionalPlain))
	}
	return b.String(), nil
}
