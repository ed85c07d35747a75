package store

import (
	"context"
	"fmt"

	"github.com/roach88/tripleopt/internal/rdf"
)

// Load reads the stored dataset.
//
// Query results are ordered by id and seq so term ids and triple order
// match the saved dataset.
func (s *Store) Load(ctx context.Context) (*rdf.Dataset, error) {
	ds := rdf.NewDataset()

	rows, err := s.db.QueryContext(ctx, `SELECT id, value FROM terms ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			value string
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		if got := ds.Encode(value); int64(got) != id {
			return nil, fmt.Errorf("load terms: term %q stored as %d, dictionary assigned %d", value, id, got)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}

	triples, err := s.db.QueryContext(ctx, `
		SELECT subject, predicate, object
		FROM triples
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load triples: %w", err)
	}
	defer triples.Close()

	for triples.Next() {
		var t rdf.Triple
		if err := triples.Scan(&t.Subject, &t.Predicate, &t.Object); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		ds.AddTriple(t)
	}
	if err := triples.Err(); err != nil {
		return nil, fmt.Errorf("load triples: %w", err)
	}

	return ds, nil
}
