package schema

import (
	"errors"
	"fmt"
	"regexp"
)

// TableRef is a table the catalog reports as declaring the target column.
// Name and Column are taken verbatim from the catalog; they are the only
// identifiers the rename engine interpolates into SQL.
type TableRef struct {
	Schema string
	Name   string
	Column string
}

func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ErrInvalidIdentifier is returned for schema or column names outside the
// accepted identifier syntax.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidateIdentifier checks a configured schema or column name.
func ValidateIdentifier(kind, name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

// SchemaQueryError reports a failure of the catalog query itself.
type SchemaQueryError struct {
	Schema string
	Column string
	Err    error
}

func (e *SchemaQueryError) Error() string {
	return fmt.Sprintf("schema query for column %q in %q failed: %v", e.Column, e.Schema, e.Err)
}

func (e *SchemaQueryError) Unwrap() error { return e.Err }
