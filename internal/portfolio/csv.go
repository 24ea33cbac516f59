// Package portfolio loads the portfolio source and seeds the vector collection.
package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amishk599/coldreach/internal/model"
)

const (
	techStackColumn = "techstack"
	linksColumn     = "links"
)

// LoadCSV reads portfolio items from a CSV with a header row containing
// Techstack and Links columns. Column order does not matter and extra columns
// are ignored.
func LoadCSV(r io.Reader) ([]model.PortfolioItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("portfolio csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	techIdx, linkIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case techStackColumn:
			techIdx = i
		case linksColumn:
			linkIdx = i
		}
	}
	if techIdx < 0 || linkIdx < 0 {
		return nil, fmt.Errorf("portfolio csv header must contain Techstack and Links columns, got %v", header)
	}

	var items []model.PortfolioItem
	for row := 2; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if techIdx >= len(record) || linkIdx >= len(record) {
			return nil, fmt.Errorf("csv row %d: expected at least %d columns, got %d", row, max(techIdx, linkIdx)+1, len(record))
		}

		item := model.PortfolioItem{
			TechStack: strings.TrimSpace(record[techIdx]),
			Link:      strings.TrimSpace(record[linkIdx]),
		}
		if item.Link == "" {
			return nil, fmt.Errorf("csv row %d: Links is empty", row)
		}
		if item.TechStack == "" {
			return nil, fmt.Errorf("csv row %d: Techstack is empty", row)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadCSVFile opens path and parses it with LoadCSV.
func LoadCSVFile(path string) ([]model.PortfolioItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open portfolio csv: %w", err)
	}
	defer f.Close()

	items, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}
