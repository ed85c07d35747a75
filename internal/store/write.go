package store

import (
	"context"
	"fmt"

	"github.com/roach88/tripleopt/internal/rdf"
)

// Save replaces the stored dataset with ds in one transaction.
//
// Terms are written with their dictionary ids and triples with their
// position, so Load reproduces ds exactly.
func (s *Store) Save(ctx context.Context, ds *rdf.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Triples reference terms, so they go first.
	for _, stmt := range []string{"DELETE FROM triples", "DELETE FROM terms"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}
	}

	insertTerm, err := tx.PrepareContext(ctx, `INSERT INTO terms (id, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	defer insertTerm.Close()

	for id := 1; id <= ds.Dictionary.Len(); id++ {
		value, ok := ds.Dictionary.Decode(rdf.ID(id))
		if !ok {
			return fmt.Errorf("save dataset: dictionary has no term %d", id)
		}
		if _, err := insertTerm.ExecContext(ctx, id, value); err != nil {
			return fmt.Errorf("save term %d: %w", id, err)
		}
	}

	insertTriple, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (seq, subject, predicate, object)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	defer insertTriple.Close()

	for i, t := range ds.Triples {
		if _, err := insertTriple.ExecContext(ctx, i+1, t.Subject, t.Predicate, t.Object); err != nil {
			return fmt.Errorf("save triple %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	return nil
}
