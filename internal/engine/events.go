package engine

import "group-renamer/internal/schema"

// Stage is a state of the run state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageGateChecked
	StageTablesDiscovered
	StageValidating
	StageCommitting
	StageDone
	StageRolledBack
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageGateChecked:
		return "gate-checked"
	case StageTablesDiscovered:
		return "tables-discovered"
	case StageValidating:
		return "validating"
	case StageCommitting:
		return "committing"
	case StageDone:
		return "done"
	case StageRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	EventStageEntered EventKind = iota
	EventTablesDiscovered
	EventTableValidated
	EventConflictFound
	EventTableApplied
	EventRunFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStageEntered:
		return "stage"
	case EventTablesDiscovered:
		return "tables-discovered"
	case EventTableValidated:
		return "table-validated"
	case EventConflictFound:
		return "conflict"
	case EventTableApplied:
		return "table-applied"
	case EventRunFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is emitted by the engine as a run progresses. Table and Pair are
// set only for table or pair scoped events. Count carries the number of
// discovered tables, rows affected or rows in conflict depending on Kind.
type Event struct {
	Kind  EventKind
	Stage Stage
	Table schema.TableRef
	Pair  *Pair
	Count int64
	Err   error
}

// Observer receives engine events synchronously, on the run's goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
