package dialect

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// SQLiteDialect has no information_schema; tables are listed from
// sqlite_master and columns from the pragma_table_info table function.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Driver() string { return "sqlite" }

func (d *SQLiteDialect) ColumnTablesQuery() string {
	// The schema argument is consumed by a dummy clause; only "main" is scanned.
	return `SELECT DISTINCT m.name, p.name FROM sqlite_master AS m, pragma_table_info(m.name) AS p WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND ? IS NOT NULL AND p.name = ? ORDER BY m.name`
}

func (d *SQLiteDialect) CurrentSchemaQuery() string {
	return "SELECT 'main'"
}

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

// Attached databases are not supported, so the schema is dropped.
func (d *SQLiteDialect) QualifiedTable(schema, table string) string {
	return qualify(d.QuoteIdentifier, "", table)
}

func (d *SQLiteDialect) Placeholders() sq.PlaceholderFormat {
	return sq.Question
}

func (d *SQLiteDialect) BeforeRename(ctx context.Context, tx Execer, tables []string) error {
	// Reset automatically at the end of the transaction.
	_, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON")
	return err
}

func (d *SQLiteDialect) AfterRename(ctx context.Context, tx Execer, tables []string) error {
	return nil
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}

func (d *SQLiteDialect) GetColumnName(input string) string {
	return DefaultGetColumnName(input)
}
