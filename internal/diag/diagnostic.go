package diag

import (
	"vesna/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one reported problem with a primary location.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
