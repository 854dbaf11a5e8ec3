package diagfmt

import (
	"encoding/json"
	"io"

	"vesna/internal/diag"
	"vesna/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// makeLocation создаёт LocationJSON из Span. Нулевой Span (диагностика
// уровня программы) даёт nil.
func makeLocation(span source.Span, fs *source.FileSet, opts JSONOpts) *LocationJSON {
	if span == (source.Span{}) || fs == nil || fs.Len() == 0 {
		return nil
	}
	f := fs.Get(span.File)
	loc := &LocationJSON{
		File:      displayPath(fs, f, opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		d := items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.String(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  n.Msg,
					Location: makeLocation(n.Span, fs, opts),
				})
			}
		}
		diagnostics = append(diagnostics, dj)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       bag.Len(),
	}
}

// JSON сериализует диагностики в поток одним документом.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	out := BuildDiagnosticsOutput(bag, fs, opts)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
