package engine

import (
	"errors"
	"fmt"
	"strings"

	"group-renamer/internal/schema"
)

var (
	// ErrGateAbort marks a run skipped because the site is in maintenance.
	// It is not a failure of the run; callers use it to pick an exit code.
	ErrGateAbort = errors.New("maintenance mode is enabled, nothing was done")

	// ErrNoTables is returned when RequireTables is set and discovery is empty.
	ErrNoTables = errors.New("no table declares the target column")
)

// InputError reports a malformed batch or configuration.
type InputError struct {
	Where string
	Err   error
}

func (e *InputError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("invalid input: %v", e.Err)
	}
	return fmt.Sprintf("invalid input at %s: %v", e.Where, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ValidationQueryError reports a failed availability query.
type ValidationQueryError struct {
	Table schema.TableRef
	Err   error
}

func (e *ValidationQueryError) Error() string {
	return fmt.Sprintf("availability check on %s failed: %v", e.Table, e.Err)
}

func (e *ValidationQueryError) Unwrap() error { return e.Err }

// Conflict is a new value already present in a table.
type Conflict struct {
	Table schema.TableRef
	Pair  Pair
	Rows  int64
}

// ConflictError lists every colliding pair found in the failing table.
type ConflictError struct {
	Table     schema.TableRef
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	values := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		values[i] = fmt.Sprintf("%q", c.Pair.New)
	}
	return fmt.Sprintf("%s already exists in table %s", strings.Join(values, ", "), e.Table)
}

// ExecutionError reports a failed write or transaction control statement.
type ExecutionError struct {
	Op    string
	Table schema.TableRef
	Pair  *Pair
	Err   error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Table.Name != "" {
		b.WriteString(" on ")
		b.WriteString(e.Table.String())
	}
	if e.Pair != nil {
		fmt.Fprintf(&b, " (%s)", e.Pair)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }
