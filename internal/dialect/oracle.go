package dialect

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ErrHooksUnsupported is returned when a dialect cannot suspend foreign keys
// without leaving the rename transaction.
var ErrHooksUnsupported = errors.New("foreign key suspension would commit the transaction on this database")

type OracleDialect struct{}

func (d *OracleDialect) Driver() string { return "oracle" }

func (d *OracleDialect) ColumnTablesQuery() string {
	// ALL_TAB_COLUMNS also lists views; ALL_TABLES restricts to real tables.
	return `SELECT DISTINCT c.TABLE_NAME, c.COLUMN_NAME FROM ALL_TAB_COLUMNS c JOIN ALL_TABLES t ON t.OWNER = c.OWNER AND t.TABLE_NAME = c.TABLE_NAME WHERE c.OWNER = :1 AND c.COLUMN_NAME = :2 ORDER BY c.TABLE_NAME`
}

func (d *OracleDialect) CurrentSchemaQuery() string {
	return "SELECT SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA') FROM DUAL"
}

func (d *OracleDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (d *OracleDialect) QualifiedTable(schema, table string) string {
	return qualify(d.QuoteIdentifier, schema, table)
}

func (d *OracleDialect) Placeholders() sq.PlaceholderFormat {
	// Oracle uses :1, :2, etc. (1-based index)
	return sq.Colon
}

// In Oracle, DDL (ALTER ... DISABLE CONSTRAINT) implicitly commits the
// transaction, which would break atomicity.
func (d *OracleDialect) BeforeRename(ctx context.Context, tx Execer, tables []string) error {
	return ErrHooksUnsupported
}

func (d *OracleDialect) AfterRename(ctx context.Context, tx Execer, tables []string) error {
	return nil
}

// Unquoted Oracle identifiers are stored upper case in the dictionary.
func (d *OracleDialect) GetSchemaName(input string) string {
	return strings.ToUpper(input)
}

// ALL_TAB_COLUMNS matches COLUMN_NAME exactly, and an unquoted gid is GID.
func (d *OracleDialect) GetColumnName(input string) string {
	return strings.ToUpper(input)
}
