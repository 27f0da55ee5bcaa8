package store

import (
	"context"

	"github.com/sahilm/fuzzy"
)

// FoodMatch is an archived food name matching a search pattern
type FoodMatch struct {
	Name string
	// Runs counts the runs the food appears in
	Runs int
	// Positions of the matched characters in Name, as byte offsets
	MatchedIndexes []int
	Score          int
}

// FindFoods fuzzy-matches pattern against all archived food names, best
// matches first. A limit <= 0 returns all matches.
func (s *Store) FindFoods(ctx context.Context, pattern string, limit int) ([]FoodMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(DISTINCT run_id) FROM foods GROUP BY name ORDER BY name
	`)
	if err != nil {
		return nil, dbError(err, "failed to query foods", "store.FindFoods")
	}
	defer rows.Close()

	var names []string
	var runs []int
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, dbError(err, "failed to scan food", "store.FindFoods")
		}
		names = append(names, name)
		runs = append(runs, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to read foods", "store.FindFoods")
	}

	matches := fuzzy.Find(pattern, names)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	result := make([]FoodMatch, len(matches))
	for i, m := range matches {
		result[i] = FoodMatch{
			Name:           m.Str,
			Runs:           runs[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return result, nil
}
