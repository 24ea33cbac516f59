package scrape

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// HTMLFetcher downloads a single page and extracts its visible text.
type HTMLFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTMLFetcher creates a generic page fetcher.
func NewHTMLFetcher(client *http.Client, opts Options) *HTMLFetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &HTMLFetcher{client: client, userAgent: opts.UserAgent, maxBytes: opts.MaxBytes}
}

// Fetch returns the page text. Non-text content types and pages without any
// visible text are errors.
func (f *HTMLFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	body, header, err := get(ctx, f.client, rawURL, f.userAgent, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8", f.maxBytes)
	if err != nil {
		return "", err
	}

	if ct := header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && !strings.HasPrefix(mediaType, "text/") && mediaType != "application/xhtml+xml" {
			return "", fmt.Errorf("fetch %s: unsupported content type %q", rawURL, mediaType)
		}
	}

	text, err := extractText(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", rawURL, err)
	}
	if text == "" {
		return "", fmt.Errorf("fetch %s: page has no visible text", rawURL)
	}
	return text, nil
}
