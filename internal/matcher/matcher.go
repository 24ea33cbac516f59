// Package matcher picks the portfolio links that best fit a job's skills.
package matcher

import (
	"context"
	"fmt"

	"github.com/amishk599/coldreach/internal/model"
)

// TopK is how many neighbours are taken per skill.
const TopK = 2

// LinkMatcher queries the portfolio collection once per job, with one query
// text per skill, and flattens the per-skill neighbours into one list.
type LinkMatcher struct {
	store model.PortfolioStore
}

// NewLinkMatcher returns a matcher backed by store.
func NewLinkMatcher(store model.PortfolioStore) *LinkMatcher {
	return &LinkMatcher{store: store}
}

// Match returns the matched links in first-seen order: skills in the order
// given, each skill's neighbours most similar first, duplicates dropped.
// An empty skill list yields an empty result without querying the store.
func (m *LinkMatcher) Match(ctx context.Context, skills []string) ([]string, error) {
	if len(skills) == 0 {
		return []string{}, nil
	}

	perSkill, err := m.store.Query(ctx, skills, TopK)
	if err != nil {
		return nil, fmt.Errorf("querying portfolio for %d skills: %w", len(skills), err)
	}
	return flatten(perSkill), nil
}

func flatten(perSkill [][]string) []string {
	seen := make(map[string]bool)
	links := []string{}
	for _, neighbours := range perSkill {
		for _, link := range neighbours {
			if seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}
