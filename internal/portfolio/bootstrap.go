package portfolio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/coldreach/internal/model"
)

// Source produces the items to seed an empty collection with.
type Source func() ([]model.PortfolioItem, error)

// CSVSource returns a Source reading the CSV at path. The file is only read
// when the collection actually needs seeding.
func CSVSource(path string) Source {
	return func() ([]model.PortfolioItem, error) {
		return LoadCSVFile(path)
	}
}

// Bootstrap seeds store from source when, and only when, the store is empty.
// A populated store is left untouched, even if its contents differ from the
// source. Returns the number of entries written.
func Bootstrap(ctx context.Context, store model.PortfolioStore, source Source, logger *slog.Logger) (int, error) {
	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking portfolio collection: %w", err)
	}
	if !empty {
		logger.Info("portfolio collection already populated, skipping ingest")
		return 0, nil
	}

	items, err := source()
	if err != nil {
		return 0, fmt.Errorf("loading portfolio source: %w", err)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("portfolio source has no entries")
	}

	entries, err := store.Ingest(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("ingesting portfolio: %w", err)
	}

	logger.Info("portfolio collection populated", "entries", len(entries))
	return len(entries), nil
}
