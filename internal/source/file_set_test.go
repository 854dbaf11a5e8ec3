package source

import "testing"

func TestAddVirtualNormalizesCRLF(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ves", []byte("fn f() {\r\n}\r\n"))
	f := fs.Get(id)
	if string(f.Content) != "fn f() {\n}\n" {
		t.Fatalf("CRLF not normalized: %q", f.Content)
	}
}

func TestLineOf(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ves", []byte("one\ntwo\nthree"))
	f := fs.Get(id)

	cases := []struct {
		off  uint32
		line uint32
	}{
		{0, 1},
		{3, 1}, // the newline itself belongs to line 1
		{4, 2},
		{7, 2},
		{8, 3},
		{12, 3},
	}
	for _, c := range cases {
		if got := f.LineOf(c.off); got != c.line {
			t.Fatalf("LineOf(%d) = %d, want %d", c.off, got, c.line)
		}
	}
}

func TestLineStart(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ves", []byte("ab\ncd\n"))
	f := fs.Get(id)
	if got := f.LineStart(1); got != 0 {
		t.Fatalf("LineStart(1) = %d", got)
	}
	if got := f.LineStart(2); got != 3 {
		t.Fatalf("LineStart(2) = %d", got)
	}
	if got := f.LineStart(99); got != uint32(len(f.Content)) {
		t.Fatalf("LineStart(99) = %d", got)
	}
}

func TestResolveSpan(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ves", []byte("let x = 1;\nlet y = 2;\n"))
	start, end := fs.Resolve(Span{File: id, Start: 15, End: 16})
	if start.Line != 2 || start.Col != 5 {
		t.Fatalf("start = %+v", start)
	}
	if end.Line != 2 || end.Col != 6 {
		t.Fatalf("end = %+v", end)
	}
}

func TestGetByPathTracksLatest(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("dup.ves", []byte("old"))
	fs.AddVirtual("dup.ves", []byte("new"))
	f, ok := fs.GetByPath("dup.ves")
	if !ok {
		t.Fatalf("path not found")
	}
	if string(f.Content) != "new" {
		t.Fatalf("index should point at the latest version, got %q", f.Content)
	}
}
