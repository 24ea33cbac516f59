package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/coldreach/internal/embed"
	"github.com/amishk599/coldreach/internal/model"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "portfolio"

const defaultBatchSize = 32

var _ model.PortfolioStore = (*SQLiteStore)(nil)

// SQLiteStore is a persistent vector collection of portfolio entries.
// Similarity is cosine over stored embeddings; ties keep insertion order.
type SQLiteStore struct {
	db             *sql.DB
	collection     string
	embedder       embed.Embedder
	ingestEmbedder embed.Embedder
	batchSize      int
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithIngestEmbedder sets the embedder used by Ingest. Queries keep using the
// embedder passed to Open. Both must produce vectors in the same space.
func WithIngestEmbedder(e embed.Embedder) Option {
	return func(s *SQLiteStore) { s.ingestEmbedder = e }
}

// WithBatchSize sets how many tech stacks are embedded per Embed call during ingest.
func WithBatchSize(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Open opens (or creates) the SQLite database at dbPath and ensures the
// portfolio_entries table exists. Failures wrap model.ErrStoreUnavailable.
func Open(dbPath, collection string, embedder embed.Embedder, opts ...Option) (*SQLiteStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating store dir: %v", model.ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening sqlite db: %v", model.ErrStoreUnavailable, err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging sqlite db: %v", model.ErrStoreUnavailable, err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS portfolio_entries (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		tech_stack TEXT NOT NULL,
		link       TEXT NOT NULL,
		embedding  BLOB NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating portfolio_entries table: %v", model.ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_portfolio_collection ON portfolio_entries (collection, seq)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating collection index: %v", model.ErrStoreUnavailable, err)
	}

	s := &SQLiteStore{
		db:         db,
		collection: collection,
		embedder:   embedder,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ingestEmbedder == nil {
		s.ingestEmbedder = embedder
	}
	return s, nil
}

// Ingest embeds each item's tech stack and stores it under a fresh UUID.
// All rows are written in one transaction: either every item lands or none does.
func (s *SQLiteStore) Ingest(ctx context.Context, items []model.PortfolioItem) ([]model.PortfolioEntry, error) {
	if len(items) == 0 {
		return nil, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Link) == "" {
			return nil, fmt.Errorf("ingest item %d: link is empty", i)
		}
		if strings.TrimSpace(item.TechStack) == "" {
			return nil, fmt.Errorf("ingest item %d: tech stack is empty", i)
		}
		texts[i] = item.TechStack
	}

	vectors := make([][]float32, 0, len(items))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.ingestEmbedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding tech stacks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding tech stacks %d-%d: got %d vectors", start, end-1, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin ingest: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO portfolio_entries (id, collection, tech_stack, link, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("%w: preparing insert: %v", model.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	entries := make([]model.PortfolioEntry, len(items))
	for i, item := range items {
		entry := model.PortfolioEntry{
			ID:        uuid.NewString(),
			TechStack: item.TechStack,
			Link:      item.Link,
		}
		if _, err := stmt.ExecContext(ctx, entry.ID, s.collection, entry.TechStack, entry.Link, encodeVector(vectors[i])); err != nil {
			return nil, fmt.Errorf("%w: inserting entry %s: %v", model.ErrStoreUnavailable, entry.ID, err)
		}
		entries[i] = entry
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit ingest: %v", model.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Count returns the number of entries in the collection.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM portfolio_entries WHERE collection = ?", s.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting entries: %v", model.ErrStoreUnavailable, err)
	}
	return count, nil
}

// IsEmpty returns true if the collection has no entries.
func (s *SQLiteStore) IsEmpty(ctx context.Context) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Entries lists the collection in insertion order.
func (s *SQLiteStore) Entries(ctx context.Context) ([]model.PortfolioEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, tech_stack, link FROM portfolio_entries WHERE collection = ? ORDER BY seq", s.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: listing entries: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []model.PortfolioEntry
	for rows.Next() {
		var e model.PortfolioEntry
		if err := rows.Scan(&e.ID, &e.TechStack, &e.Link); err != nil {
			return nil, fmt.Errorf("%w: scanning entry: %v", model.ErrStoreUnavailable, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing entries: %v", model.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
