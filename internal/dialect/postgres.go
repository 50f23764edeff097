package dialect

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// PostgresDialect serves both the lib/pq ("postgres") and pgx stdlib ("pgx")
// drivers; they share placeholder syntax and catalog.
type PostgresDialect struct{}

func (d *PostgresDialect) Driver() string { return "postgres" }

func (d *PostgresDialect) ColumnTablesQuery() string {
	// use $1/$2 placeholders
	return `SELECT DISTINCT c.table_name, c.column_name FROM information_schema.columns c JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name WHERE c.table_schema = $1 AND c.column_name = $2 AND t.table_type = 'BASE TABLE' ORDER BY c.table_name`
}

func (d *PostgresDialect) CurrentSchemaQuery() string {
	return "SELECT current_schema()"
}

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) QualifiedTable(schema, table string) string {
	return qualify(d.QuoteIdentifier, schema, table)
}

func (d *PostgresDialect) Placeholders() sq.PlaceholderFormat {
	return sq.Dollar
}

func (d *PostgresDialect) BeforeRename(ctx context.Context, tx Execer, tables []string) error {
	// Only DEFERRABLE foreign keys honor this; they are checked at commit.
	_, err := tx.ExecContext(ctx, "SET CONSTRAINTS ALL DEFERRED")
	return err
}

func (d *PostgresDialect) AfterRename(ctx context.Context, tx Execer, tables []string) error {
	_, err := tx.ExecContext(ctx, "SET CONSTRAINTS ALL IMMEDIATE")
	return err
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}

func (d *PostgresDialect) GetColumnName(input string) string {
	return DefaultGetColumnName(input)
}
