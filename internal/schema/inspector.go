package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"group-renamer/internal/dialect"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Discover lists the base tables in schemaName that declare a column named
// exactly column. The result is ordered by table name and contains each
// table once. An empty result is not an error.
func Discover(ctx context.Context, q Querier, d dialect.Dialect, schemaName, column string) ([]TableRef, error) {
	// [Interface-First]: Delegate schema resolution to the dialect
	target := d.GetSchemaName(schemaName)
	if err := ValidateIdentifier("schema", target); err != nil {
		return nil, err
	}
	column = d.GetColumnName(column)
	if err := ValidateIdentifier("column", column); err != nil {
		return nil, err
	}

	fail := func(format string, err error) error {
		return &SchemaQueryError{Schema: target, Column: column, Err: fmt.Errorf(format, err)}
	}

	rows, err := q.QueryContext(ctx, d.ColumnTablesQuery(), target, column)
	if err != nil {
		return nil, fail("failed to query tables: %w", err)
	}
	defer rows.Close()

	// Case-folding catalogs can report one table twice.
	seen := make(map[string]bool)
	tables := []TableRef{}

	for rows.Next() {
		var tName, cName sql.NullString
		if err := rows.Scan(&tName, &cName); err != nil {
			return nil, fail("failed to scan table name: %w", err)
		}
		if !tName.Valid || tName.String == "" {
			continue // Skip invalid rows
		}

		key := strings.ToUpper(tName.String)
		if seen[key] {
			continue
		}
		seen[key] = true

		col := cName.String
		if !cName.Valid || col == "" {
			col = column
		}
		tables = append(tables, TableRef{Schema: target, Name: tName.String, Column: col})
	}
	if err := rows.Err(); err != nil {
		return nil, fail("error iterating tables: %w", err)
	}

	return tables, nil
}

// CurrentSchema asks the connection which schema it is bound to.
func CurrentSchema(ctx context.Context, q Querier, d dialect.Dialect) (string, error) {
	rows, err := q.QueryContext(ctx, d.CurrentSchemaQuery())
	if err != nil {
		return "", &SchemaQueryError{Err: fmt.Errorf("failed to get schema name: %w", err)}
	}
	defer rows.Close()

	var name sql.NullString
	if rows.Next() {
		if err := rows.Scan(&name); err != nil {
			return "", &SchemaQueryError{Err: fmt.Errorf("failed to scan schema name: %w", err)}
		}
	}
	if err := rows.Err(); err != nil {
		return "", &SchemaQueryError{Err: fmt.Errorf("failed to get schema name: %w", err)}
	}
	if !name.Valid || name.String == "" {
		return "", &SchemaQueryError{Err: fmt.Errorf("no schema selected on the connection")}
	}
	return name.String, nil
}
