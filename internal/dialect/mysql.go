package dialect

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Driver() string { return "mysql" }

func (d *MysqlDialect) ColumnTablesQuery() string {
	return `SELECT DISTINCT c.TABLE_NAME, c.COLUMN_NAME FROM information_schema.COLUMNS c JOIN information_schema.TABLES t ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME WHERE c.TABLE_SCHEMA = ? AND c.COLUMN_NAME = ? AND t.TABLE_TYPE = 'BASE TABLE' ORDER BY c.TABLE_NAME`
}

func (d *MysqlDialect) CurrentSchemaQuery() string {
	return "SELECT DATABASE()"
}

func (d *MysqlDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, "`", "`")
}

func (d *MysqlDialect) QualifiedTable(schema, table string) string {
	return qualify(d.QuoteIdentifier, schema, table)
}

func (d *MysqlDialect) Placeholders() sq.PlaceholderFormat {
	return sq.Question
}

// FOREIGN_KEY_CHECKS is session scoped, so it stays off only for the
// connection holding the rename transaction.
func (d *MysqlDialect) BeforeRename(ctx context.Context, tx Execer, tables []string) error {
	_, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MysqlDialect) AfterRename(ctx context.Context, tx Execer, tables []string) error {
	_, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *MysqlDialect) GetColumnName(input string) string {
	return DefaultGetColumnName(input)
}
