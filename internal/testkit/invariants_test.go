package testkit

import (
	"testing"

	"vesna/internal/ast"
	"vesna/internal/parser"
	"vesna/internal/source"
)

func parseOne(t *testing.T, src string) *ast.File {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.ves", []byte(src)))
	f, ok := parser.ParseFile(file, parser.Options{})
	if !ok {
		t.Fatalf("parse failed for %q", src)
	}
	return f
}

func TestSpanInvariantsHoldForParsedFile(t *testing.T) {
	f := parseOne(t, `elem class Badge {
	label: string;
	fn render(scale) : string { return this.label; }
}
fn show(b) { b.render(2); }
`)
	if err := CheckSpanInvariants(f); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestSpanInvariantsCatchEscapingName(t *testing.T) {
	f := parseOne(t, "fn tiny() { }\n")
	fn := f.Decls[0].(*ast.FnDecl)
	fn.NameSpan.End = fn.Sp.End + 100

	if err := CheckSpanInvariants(f); err == nil {
		t.Fatalf("corrupted name span not detected")
	}
}

func TestSpanInvariantsCatchBadRetOff(t *testing.T) {
	f := parseOne(t, "fn tiny() { }\n")
	fn := f.Decls[0].(*ast.FnDecl)
	fn.RetOff = fn.Sp.End + 1

	if err := CheckSpanInvariants(f); err == nil {
		t.Fatalf("out-of-span return offset not detected")
	}
}

func TestSpanInvariantsNilFile(t *testing.T) {
	if err := CheckSpanInvariants(nil); err == nil {
		t.Fatalf("nil file accepted")
	}
}
