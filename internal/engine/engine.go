package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"group-renamer/internal/dialect"
	"group-renamer/internal/schema"
)

const (
	DefaultColumn    = "gid"
	DefaultChunkSize = 500
)

// Config scopes one engine to a schema and column. It is copied into the
// engine and never mutated during a run.
type Config struct {
	// Schema to scan; resolved from the connection when empty.
	Schema string
	// Column holding the values to rename.
	Column string
	// ChunkSize bounds the number of values bound into one IN list.
	ChunkSize int
	// RequireTables turns an empty discovery into a failure.
	RequireTables bool
	// DryRun validates every table and then rolls back.
	DryRun bool
	// SuspendForeignKeys runs the dialect's BeforeRename/AfterRename hooks
	// inside the transaction.
	SuspendForeignKeys bool
}

func (c Config) withDefaults() Config {
	if c.Column == "" {
		c.Column = DefaultColumn
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return c
}

// Gate is evaluated once before a run touches the database.
type Gate interface {
	InMaintenance(ctx context.Context) (bool, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) (bool, error)

func (f GateFunc) InMaintenance(ctx context.Context) (bool, error) { return f(ctx) }

type openGate struct{}

func (openGate) InMaintenance(context.Context) (bool, error) { return false, nil }

// Status is the terminal classification of a run.
type Status int

const (
	// StatusDone: every pair applied to every table and committed, or, for a
	// dry run, every table validated.
	StatusDone Status = iota
	// StatusNoTables: discovery was empty; nothing to do.
	StatusNoTables
	// StatusGateAborted: maintenance mode, nothing was touched.
	StatusGateAborted
	// StatusRejected: the run failed before a transaction was opened.
	StatusRejected
	// StatusRolledBack: the transaction was rolled back.
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNoTables:
		return "no-tables"
	case StatusGateAborted:
		return "gate-aborted"
	case StatusRejected:
		return "rejected"
	case StatusRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Outcome is the result of one run.
type Outcome struct {
	Success bool
	Status  Status
	// Stage is the last state the run reached.
	Stage  Stage
	DryRun bool

	Tables  []schema.TableRef
	Applied []TableResult

	FailingTable *schema.TableRef
	FailingPair  *Pair
	Conflicts    []Conflict

	Err error
}

// Option customizes an Engine.
type Option func(*Engine)

// WithGate sets the maintenance gate. The default gate is always open.
func WithGate(g Gate) Option {
	return func(e *Engine) {
		if g != nil {
			e.gate = g
		}
	}
}

// WithObserver sets the event sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = o
		}
	}
}

// Engine renames values of one column across every table declaring it.
type Engine struct {
	db   *sql.DB
	d    dialect.Dialect
	cfg  Config
	gate Gate
	obs  Observer
}

// New creates an engine. No connection is made until Run or Discover.
func New(db *sql.DB, d dialect.Dialect, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		db:   db,
		d:    d,
		cfg:  cfg.withDefaults(),
		gate: openGate{},
		obs:  nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Discover pings the database, resolves the schema if needed and lists the
// tables declaring the target column. It issues no writes.
func (e *Engine) Discover(ctx context.Context) ([]schema.TableRef, error) {
	if err := schema.ValidateIdentifier("column", e.cfg.Column); err != nil {
		return nil, &InputError{Where: "config", Err: err}
	}
	if err := e.db.PingContext(ctx); err != nil {
		return nil, &schema.SchemaQueryError{Schema: e.cfg.Schema, Column: e.cfg.Column, Err: fmt.Errorf("failed to connect to db: %w", err)}
	}

	schemaName := e.cfg.Schema
	if e.d.GetSchemaName(schemaName) == "" {
		name, err := schema.CurrentSchema(ctx, e.db, e.d)
		if err != nil {
			return nil, err
		}
		schemaName = name
	}

	tables, err := schema.Discover(ctx, e.db, e.d, schemaName, e.cfg.Column)
	if errors.Is(err, schema.ErrInvalidIdentifier) {
		return nil, &InputError{Where: "config", Err: err}
	}
	return tables, err
}

// Verify runs the post-commit check for tables against the engine's database.
func (e *Engine) Verify(ctx context.Context, tables []schema.TableRef, batch Batch) ([]TableReport, error) {
	return Verify(ctx, e.db, e.d, tables, batch, e.cfg.ChunkSize)
}

// Run executes one rename. Either every pair is applied to every discovered
// table and committed, or the database is left as it was. Run never retries.
// A failed Outcome carries its cause in Err; a gate abort has neither.
func (e *Engine) Run(ctx context.Context, batch Batch) Outcome {
	out := e.run(ctx, batch)
	e.obs.Observe(Event{Kind: EventRunFinished, Stage: out.Stage, Count: int64(len(out.Applied)), Err: out.Err})
	return out
}

func (e *Engine) run(ctx context.Context, batch Batch) Outcome {
	e.enter(StageIdle)

	inMaintenance, err := e.gate.InMaintenance(ctx)
	if err != nil {
		return Outcome{Status: StatusRejected, Stage: StageIdle, Err: fmt.Errorf("maintenance gate: %w", err)}
	}
	if inMaintenance {
		return Outcome{Status: StatusGateAborted, Stage: StageGateChecked}
	}
	e.enter(StageGateChecked)

	if err := batch.Validate(); err != nil {
		return Outcome{Status: StatusRejected, Stage: StageGateChecked, Err: err}
	}

	tables, err := e.Discover(ctx)
	if err != nil {
		return Outcome{Status: StatusRejected, Stage: StageGateChecked, Err: err}
	}
	e.enter(StageTablesDiscovered)
	e.obs.Observe(Event{Kind: EventTablesDiscovered, Stage: StageTablesDiscovered, Count: int64(len(tables))})

	out := Outcome{Stage: StageTablesDiscovered, Tables: tables, DryRun: e.cfg.DryRun}
	if len(tables) == 0 {
		if e.cfg.RequireTables {
			out.Status = StatusRejected
			out.Err = fmt.Errorf("%w %q", ErrNoTables, e.cfg.Column)
			return out
		}
		out.Success = true
		out.Status = StatusNoTables
		return out
	}

	return e.transact(ctx, batch, out)
}

func (e *Engine) transact(ctx context.Context, batch Batch, out Outcome) Outcome {
	e.enter(StageValidating)
	out.Stage = StageValidating

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		out.Status = StatusRejected
		out.Err = &ExecutionError{Op: "begin transaction", Err: err}
		return out
	}

	restore, err := e.suspendForeignKeys(ctx, tx, out.Tables)
	if err != nil {
		return e.rollback(tx, out, err)
	}

	err = e.work(ctx, tx, batch, &out)
	// Some suspensions are session scoped and outlive the transaction, so
	// they are lifted before any rollback or commit.
	if rerr := restore(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	if err != nil {
		return e.rollback(tx, out, err)
	}

	if e.cfg.DryRun {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			out.Stage = StageRolledBack
			out.Status = StatusRolledBack
			out.Err = &ExecutionError{Op: "rollback dry run", Err: err}
			return out
		}
		e.enter(StageDone)
		out.Stage = StageDone
		out.Status = StatusDone
		out.Success = true
		return out
	}

	if err := tx.Commit(); err != nil {
		e.enter(StageRolledBack)
		out.Stage = StageRolledBack
		out.Status = StatusRolledBack
		out.Applied = nil
		out.Err = &ExecutionError{Op: "commit", Err: err}
		return out
	}

	e.enter(StageDone)
	out.Stage = StageDone
	out.Status = StatusDone
	out.Success = true
	return out
}

// work validates every table, then, unless this is a dry run, applies the
// batch to every table. It records failure context on out.
func (e *Engine) work(ctx context.Context, tx *sql.Tx, batch Batch, out *Outcome) error {
	for i := range out.Tables {
		t := out.Tables[i]
		report, err := CheckAvailable(ctx, tx, e.d, t, batch, e.cfg.ChunkSize)
		if err != nil {
			out.FailingTable = &t
			return err
		}
		if !report.Available() {
			for j := range report.Conflicts {
				c := report.Conflicts[j]
				e.obs.Observe(Event{Kind: EventConflictFound, Stage: StageValidating, Table: t, Pair: &c.Pair, Count: c.Rows})
			}
			first := report.Conflicts[0].Pair
			out.FailingTable = &t
			out.FailingPair = &first
			out.Conflicts = report.Conflicts
			return &ConflictError{Table: t, Conflicts: report.Conflicts}
		}
		e.obs.Observe(Event{Kind: EventTableValidated, Stage: StageValidating, Table: t})
	}

	if e.cfg.DryRun {
		return nil
	}

	e.enter(StageCommitting)
	out.Stage = StageCommitting
	for i := range out.Tables {
		t := out.Tables[i]
		res, err := ApplyBatch(ctx, tx, e.d, t, batch)
		if err != nil {
			out.FailingTable = &t
			var execErr *ExecutionError
			if errors.As(err, &execErr) && execErr.Pair != nil {
				p := *execErr.Pair
				out.FailingPair = &p
			}
			return err
		}
		out.Applied = append(out.Applied, res)
		e.obs.Observe(Event{Kind: EventTableApplied, Stage: StageCommitting, Table: t, Count: res.Rows})
	}
	return nil
}

// suspendForeignKeys runs the dialect's BeforeRename hook when configured.
// The returned restore func must be called on every path once it succeeds;
// it is a no-op when nothing was suspended.
func (e *Engine) suspendForeignKeys(ctx context.Context, tx *sql.Tx, tables []schema.TableRef) (func() error, error) {
	if !e.cfg.SuspendForeignKeys {
		return func() error { return nil }, nil
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, e.d.QualifiedTable(t.Schema, t.Name))
	}
	if err := e.d.BeforeRename(ctx, tx, names); err != nil {
		return nil, &ExecutionError{Op: "suspend foreign keys", Err: err}
	}
	return func() error {
		// Still restore when the run itself was cancelled mid-way.
		if err := e.d.AfterRename(context.WithoutCancel(ctx), tx, names); err != nil {
			return &ExecutionError{Op: "restore foreign keys", Err: err}
		}
		return nil
	}, nil
}

func (e *Engine) rollback(tx *sql.Tx, out Outcome, cause error) Outcome {
	// A cancelled context already rolled the transaction back.
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		cause = errors.Join(cause, &ExecutionError{Op: "rollback", Err: err})
	}
	e.enter(StageRolledBack)
	out.Stage = StageRolledBack
	out.Status = StatusRolledBack
	out.Success = false
	out.Applied = nil
	out.Err = cause
	return out
}

func (e *Engine) enter(s Stage) {
	e.obs.Observe(Event{Kind: EventStageEntered, Stage: s})
}
