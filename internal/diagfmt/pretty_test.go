package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"vesna/internal/diag"
	"vesna/internal/source"
)

func sampleBag() (*source.FileSet, *diag.Bag) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("app.ves", []byte("fn main() {\n\tgreet();\n}\n"))
	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.TypUnknownName,
		Message:  "unknown name greet",
		Primary:  source.Span{File: id, Start: 13, End: 18},
		Notes: []diag.Note{{
			Span: source.Span{File: id, Start: 3, End: 7},
			Msg:  "called from main",
		}},
	})
	return fs, bag
}

func TestPrettyOutput(t *testing.T) {
	fs, bag := sampleBag()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	out := buf.String()
	if !strings.Contains(out, "app.ves:2:2: ERROR VES3001: unknown name greet") {
		t.Fatalf("missing primary line in output:\n%s", out)
	}
	if !strings.Contains(out, "    note at app.ves:1:4: called from main") {
		t.Fatalf("missing note line in output:\n%s", out)
	}
}

func TestPrettyWithoutNotes(t *testing.T) {
	fs, bag := sampleBag()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})

	if strings.Contains(buf.String(), "note") {
		t.Fatalf("notes should be hidden:\n%s", buf.String())
	}
}

func TestPrettyMaxTruncates(t *testing.T) {
	fs, bag := sampleBag()
	for i := 0; i < 2; i++ {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.IdxStaleDecl,
			Message:  "stale",
			Primary:  source.Span{File: 0, Start: 0, End: 2},
		})
	}

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Max: 1})

	out := buf.String()
	if !strings.Contains(out, "... and 2 more") {
		t.Fatalf("expected truncation marker:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected one diagnostic plus marker:\n%s", out)
	}
}

func TestPrettyProgramLevelDiagnostic(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  "timings: total 1.00 ms",
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})

	got := buf.String()
	if !strings.HasPrefix(got, "INFO VES7100: timings") {
		t.Fatalf("expected no path prefix for program-level diagnostic, got %q", got)
	}
}
