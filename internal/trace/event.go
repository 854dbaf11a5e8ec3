package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeRun covers a whole pipeline run.
	ScopeRun Scope = iota + 1
	// ScopePhase covers one pipeline phase (walk, parse, observe, collate, resolve).
	ScopePhase
	// ScopeFile covers per-file processing inside a phase.
	ScopeFile
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopePhase:
		return "phase"
	case ScopeFile:
		return "file"
	default:
		return "unknown"
	}
}

// Event represents a single trace event. События передаются по значению:
// sink ставит свой порядковый номер в локальную копию.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // per-sink sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	Name     string            // e.g. "annotate", "parse", "observe"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
