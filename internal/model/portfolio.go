package model

import "context"

// PortfolioItem is one row of the portfolio source before it has been stored.
type PortfolioItem struct {
	TechStack string // free-text description, the embedded field
	Link      string // showcase URL, stored as metadata
}

// PortfolioEntry is a stored portfolio item with its generated ID.
type PortfolioEntry struct {
	ID        string
	TechStack string
	Link      string
}

// PortfolioStore is a persistent vector collection of portfolio entries.
type PortfolioStore interface {
	Ingest(ctx context.Context, items []PortfolioItem) ([]PortfolioEntry, error)
	IsEmpty(ctx context.Context) (bool, error)
	// Query returns, for each text, up to topK links ranked by similarity.
	Query(ctx context.Context, texts []string, topK int) ([][]string, error)
}
