package dialect

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) Driver() string { return "sqlserver" }

func (d *MSSQLDialect) ColumnTablesQuery() string {
	// Use @p1/@p2 for schema and column binding
	return `SELECT DISTINCT c.TABLE_NAME, c.COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS c JOIN INFORMATION_SCHEMA.TABLES t ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME WHERE c.TABLE_SCHEMA = @p1 AND c.COLUMN_NAME = @p2 AND t.TABLE_TYPE = 'BASE TABLE' ORDER BY c.TABLE_NAME`
}

func (d *MSSQLDialect) CurrentSchemaQuery() string {
	return "SELECT SCHEMA_NAME()"
}

func (d *MSSQLDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, "[", "]")
}

func (d *MSSQLDialect) QualifiedTable(schema, table string) string {
	return qualify(d.QuoteIdentifier, schema, table)
}

func (d *MSSQLDialect) Placeholders() sq.PlaceholderFormat {
	return sq.AtP
}

// Constraint suspension is limited to the tables being renamed. The names
// passed in are already schema-qualified and quoted.
func (d *MSSQLDialect) BeforeRename(ctx context.Context, tx Execer, tables []string) error {
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT all", t)); err != nil {
			return fmt.Errorf("failed to disable constraints on %s: %w", t, err)
		}
	}
	return nil
}

func (d *MSSQLDialect) AfterRename(ctx context.Context, tx Execer, tables []string) error {
	for _, t := range tables {
		// WITH CHECK validates the renamed rows before commit.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT all", t)); err != nil {
			return fmt.Errorf("failed to enable constraints on %s: %w", t, err)
		}
	}
	return nil
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}

func (d *MSSQLDialect) GetColumnName(input string) string {
	return DefaultGetColumnName(input)
}
