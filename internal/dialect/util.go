package dialect

import (
	"strings"
)

// quoteWith wraps name in the given delimiters, doubling any embedded closing
// delimiter so the identifier cannot break out of its quotes.
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// qualify joins an optional schema and a table, both already quoted by q.
func qualify(q func(string) string, schema, table string) string {
	if schema == "" {
		return q(table)
	}
	return q(schema) + "." + q(table)
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

// DefaultGetColumnName leaves the column as configured.
func DefaultGetColumnName(input string) string {
	return input
}
