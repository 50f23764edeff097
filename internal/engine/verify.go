package engine

import (
	"context"
	"fmt"

	"group-renamer/internal/dialect"
	"group-renamer/internal/schema"

	sq "github.com/Masterminds/squirrel"
)

// TableReport is the post-commit state of one table.
type TableReport struct {
	Table        schema.TableRef
	RemainingOld int64
	NewRows      int64
}

// OK reports whether no row still carries an old value.
func (r TableReport) OK() bool {
	return r.RemainingOld == 0
}

// Verify re-counts old and new values in every table. It is read-only and
// meant to run after commit: a non-zero RemainingOld means another writer
// inserted an old value while the run was in flight.
func Verify(ctx context.Context, q DBTX, d dialect.Dialect, tables []schema.TableRef, batch Batch, chunkSize int) ([]TableReport, error) {
	reports := make([]TableReport, 0, len(tables))
	for _, t := range tables {
		r := TableReport{Table: t}
		for _, values := range chunkStrings(batch.OldValues(), chunkSize) {
			n, err := countIn(ctx, q, d, t, values)
			if err != nil {
				return nil, fmt.Errorf("failed to verify %s: %w", t, err)
			}
			r.RemainingOld += n
		}
		for _, values := range chunkStrings(batch.NewValues(), chunkSize) {
			n, err := countIn(ctx, q, d, t, values)
			if err != nil {
				return nil, fmt.Errorf("failed to verify %s: %w", t, err)
			}
			r.NewRows += n
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func countIn(ctx context.Context, q DBTX, d dialect.Dialect, t schema.TableRef, values []string) (int64, error) {
	col := d.QuoteIdentifier(t.Column)
	query, args, err := sq.Select("COUNT(*)").From(d.QualifiedTable(t.Schema, t.Name)).
		Where(sq.Eq{col: values}).
		PlaceholderFormat(d.Placeholders()).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := scanOne(ctx, q, query, args, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func chunkStrings(values []string, size int) [][]string {
	if size <= 0 {
		size = len(values)
	}
	var out [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		out = append(out, values[start:end])
	}
	return out
}
