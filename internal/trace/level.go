package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota // no tracing
	// LevelPhase emits run and phase boundaries.
	LevelPhase
	// LevelFile additionally emits per-file events.
	LevelFile
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelPhase:
		return "phase"
	case LevelFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "phase", "PHASE":
		return LevelPhase, nil
	case "file", "FILE":
		return LevelFile, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|phase|file)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelPhase:
		return scope <= ScopePhase
	case LevelFile:
		return scope <= ScopeFile
	}
	return false
}
