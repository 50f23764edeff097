package dialect

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// Execer is the slice of *sql.Tx the rename hooks need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect abstracts database-specific operations.
type Dialect interface {
	// Driver returns the canonical driver family name (mysql, postgres, ...).
	Driver() string

	// Metadata Queries (Schema Introspection)
	// ColumnTablesQuery takes (schema, column) and yields (table, column)
	// rows for base tables declaring that exact column.
	ColumnTablesQuery() string
	// CurrentSchemaQuery yields a single row naming the connection's schema.
	CurrentSchemaQuery() string

	// Identifiers
	QuoteIdentifier(name string) string
	QualifiedTable(schema, table string) string

	// Query Generation
	Placeholders() sq.PlaceholderFormat

	// Execution Hooks, run inside the rename transaction when foreign key
	// suspension is requested.
	BeforeRename(ctx context.Context, tx Execer, tables []string) error
	AfterRename(ctx context.Context, tx Execer, tables []string) error

	// Helpers
	GetSchemaName(input string) string
	// GetColumnName folds a configured column name the way the catalog
	// stores unquoted identifiers.
	GetColumnName(input string) string
}
