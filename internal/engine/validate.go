package engine

import (
	"context"
	"database/sql"
	"fmt"

	"group-renamer/internal/dialect"
	"group-renamer/internal/schema"

	sq "github.com/Masterminds/squirrel"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// ConflictReport is the result of checking one table.
type ConflictReport struct {
	Table     schema.TableRef
	Conflicts []Conflict
}

// Available reports whether no pair collides in the table.
func (r ConflictReport) Available() bool {
	return len(r.Conflicts) == 0
}

// CheckAvailable reports every pair whose new value is already present in
// table. Any existing row counts, including one the same batch would rename
// away. New values are probed chunkSize at a time with an IN list; a chunk
// that hits is re-probed pair by pair so the database's own comparison
// rules (collation, padding) decide which pairs collide.
func CheckAvailable(ctx context.Context, q DBTX, d dialect.Dialect, table schema.TableRef, batch Batch, chunkSize int) (ConflictReport, error) {
	report := ConflictReport{Table: table}
	from := d.QualifiedTable(table.Schema, table.Name)
	col := d.QuoteIdentifier(table.Column)

	fail := func(err error) (ConflictReport, error) {
		return ConflictReport{Table: table}, &ValidationQueryError{Table: table, Err: err}
	}

	for _, chunk := range batch.chunks(chunkSize) {
		hit, err := anyPresent(ctx, q, d, from, col, chunk.NewValues())
		if err != nil {
			return fail(err)
		}
		if !hit {
			continue
		}

		found := 0
		for _, p := range chunk {
			n, err := countMatching(ctx, q, d, from, col, p.New)
			if err != nil {
				return fail(err)
			}
			if n > 0 {
				report.Conflicts = append(report.Conflicts, Conflict{Table: table, Pair: p, Rows: n})
				found++
			}
		}
		if found == 0 {
			// The IN probe matched but no single value did; refuse to guess.
			return fail(fmt.Errorf("existing values match the batch but could not be attributed to a pair"))
		}
	}
	return report, nil
}

func anyPresent(ctx context.Context, q DBTX, d dialect.Dialect, from, col string, values []string) (bool, error) {
	query, args, err := sq.Select(col).Distinct().From(from).
		Where(sq.Eq{col: values}).
		PlaceholderFormat(d.Placeholders()).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build availability query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	hit := rows.Next()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return hit, nil
}

func countMatching(ctx context.Context, q DBTX, d dialect.Dialect, from, col, value string) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From(from).
		Where(sq.Eq{col: value}).
		PlaceholderFormat(d.Placeholders()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int64
	if err := scanOne(ctx, q, query, args, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// scanOne runs a single-row query through QueryContext, which is all the
// DBTX surface guarantees.
func scanOne(ctx context.Context, q DBTX, query string, args []interface{}, dest ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}
