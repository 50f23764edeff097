package engine

import (
	"context"
	"fmt"

	"group-renamer/internal/dialect"
	"group-renamer/internal/schema"

	sq "github.com/Masterminds/squirrel"
)

// TableResult records the rows rewritten in one table.
type TableResult struct {
	Table schema.TableRef
	Rows  int64
}

// ApplyBatch rewrites the target column of table for every pair, in batch
// order, with one prepared UPDATE. Pairs that match no row are skipped
// silently. Writes become durable only when the caller commits q.
func ApplyBatch(ctx context.Context, q DBTX, d dialect.Dialect, table schema.TableRef, batch Batch) (TableResult, error) {
	result := TableResult{Table: table}
	col := d.QuoteIdentifier(table.Column)

	// Values are bound at exec time; the builder only needs the shape.
	query, _, err := sq.Update(d.QualifiedTable(table.Schema, table.Name)).
		Set(col, "").
		Where(sq.Eq{col: ""}).
		PlaceholderFormat(d.Placeholders()).ToSql()
	if err != nil {
		return result, &ExecutionError{Op: "build update", Table: table, Err: err}
	}

	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return result, &ExecutionError{Op: "prepare update", Table: table, Err: err}
	}
	defer stmt.Close()

	for i := range batch {
		p := batch[i]
		res, err := stmt.ExecContext(ctx, p.New, p.Old)
		if err != nil {
			return result, &ExecutionError{Op: "update", Table: table, Pair: &p, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, &ExecutionError{Op: "update", Table: table, Pair: &p, Err: fmt.Errorf("rows affected: %w", err)}
		}
		result.Rows += n
	}
	return result, nil
}
