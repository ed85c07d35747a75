package querysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Run executes q on db and returns one binding per result row. db must
// come from store.Open so the term functions are registered.
func Run(ctx context.Context, db *sql.DB, q *Query) ([]exec.Binding, error) {
	rows, err := db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	defer rows.Close()

	width := max(len(q.Columns), 1)
	values := make([]int64, width)
	dest := make([]any, width)
	for i := range values {
		dest[i] = &values[i]
	}

	var out []exec.Binding
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		b := make(exec.Binding, len(q.Columns))
		for i, col := range q.Columns {
			b[col] = rdf.ID(values[i])
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
