package logging

import (
	"log/slog"

	"group-renamer/internal/engine"
)

// NewRunObserver logs engine events. Stage transitions go to debug, table
// progress to info, conflicts to warn and a failed run to error.
func NewRunObserver(l *Logger) engine.Observer {
	return engine.ObserverFunc(func(e engine.Event) {
		attrs := []any{slog.String("stage", e.Stage.String())}
		if e.Table.Name != "" {
			attrs = append(attrs, slog.String("table", e.Table.String()))
		}
		if e.Pair != nil {
			attrs = append(attrs, slog.String("old", e.Pair.Old), slog.String("new", e.Pair.New))
		}

		switch e.Kind {
		case engine.EventStageEntered:
			l.Debug("entering stage", attrs...)
		case engine.EventTablesDiscovered:
			l.Info("tables discovered", append(attrs, slog.Int64("tables", e.Count))...)
		case engine.EventTableValidated:
			l.Info("table validated", attrs...)
		case engine.EventConflictFound:
			l.Warn("new value already exists", append(attrs, slog.Int64("rows", e.Count))...)
		case engine.EventTableApplied:
			l.Info("table renamed", append(attrs, slog.Int64("rows", e.Count))...)
		case engine.EventRunFinished:
			if e.Err != nil {
				l.Error("run failed", append(attrs, slog.String("error", e.Err.Error()))...)
				return
			}
			l.Info("run finished", append(attrs, slog.Int64("tables_applied", e.Count))...)
		}
	})
}
