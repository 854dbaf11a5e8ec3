package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"vesna/internal/diag"
	"vesna/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждой диагностики печатает:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// затем Notes с отступом. Диагностики без позиции (уровень программы)
// печатаются без префикса пути. Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	limit := len(items)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}

	for i := range limit {
		d := items[i]
		writeLocation(w, fs, d.Primary, opts)
		fmt.Fprintf(w, "%s %s: %s\n", severityLabel(d.Severity, opts.Color), d.Code, d.Message)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprint(w, "    note")
				if n.Span != (source.Span{}) {
					fmt.Fprint(w, " at ")
					writeSpanPos(w, fs, n.Span, opts)
				}
				fmt.Fprintf(w, ": %s\n", n.Msg)
			}
		}
	}

	if limit < len(items) {
		fmt.Fprintf(w, "... and %d more\n", len(items)-limit)
	}
}

func writeLocation(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	if span == (source.Span{}) || fs == nil || fs.Len() == 0 {
		return
	}
	writeSpanPos(w, fs, span, opts)
	fmt.Fprint(w, ": ")
}

func writeSpanPos(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	fmt.Fprintf(w, "%s:%d:%d", displayPath(fs, f, opts.PathMode), start.Line, start.Col)
}

func severityLabel(sev diag.Severity, colored bool) string {
	label := sev.String()
	if !colored {
		return label
	}
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold).Sprint(label)
	default:
		return color.New(color.FgCyan).Sprint(label)
	}
}
