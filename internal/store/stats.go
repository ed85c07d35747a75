package store

import (
	"context"
	"fmt"

	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/stats"
)

// Stats computes exact statistics of the stored dataset in SQL.
func (s *Store) Stats(ctx context.Context) (*stats.DatabaseStats, error) {
	out := &stats.DatabaseStats{Predicates: make(map[rdf.ID]stats.PredicateStats)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT subject),
		       COUNT(DISTINCT predicate),
		       COUNT(DISTINCT object)
		FROM triples
	`).Scan(&out.TotalTriples, &out.DistinctSubjects, &out.DistinctPredicates, &out.DistinctObjects)
	if err != nil {
		return nil, fmt.Errorf("query dataset stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT predicate,
		       COUNT(*),
		       COUNT(DISTINCT subject),
		       COUNT(DISTINCT object)
		FROM triples
		GROUP BY predicate
		ORDER BY predicate ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query predicate stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id rdf.ID
			ps stats.PredicateStats
		)
		if err := rows.Scan(&id, &ps.Count, &ps.DistinctSubjects, &ps.DistinctObjects); err != nil {
			return nil, fmt.Errorf("scan predicate stats: %w", err)
		}
		out.Predicates[id] = ps
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query predicate stats: %w", err)
	}
	return out, nil
}
