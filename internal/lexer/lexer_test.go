package lexer_test

import (
	"testing"

	"vesna/internal/diag"
	"vesna/internal/lexer"
	"vesna/internal/source"
	"vesna/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки.
func makeTestLexer(t *testing.T, input string) (*lexer.Lexer, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ves", []byte(input))
	bag := diag.NewBag(16)
	return lexer.New(fs.Get(id), diag.BagReporter{Bag: bag}), bag
}

func collectKinds(lx *lexer.Lexer) []token.Kind {
	var kinds []token.Kind
	for {
		tok := lx.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestScanDeclaration(t *testing.T) {
	lx, bag := makeTestLexer(t, "fn add(a: int, b) { return a; }")
	want := []token.Kind{
		token.KwFn, token.Ident, token.LParen,
		token.Ident, token.Colon, token.Ident, token.Comma, token.Ident,
		token.RParen, token.LBrace,
		token.KwReturn, token.Ident, token.Semicolon,
		token.RBrace, token.EOF,
	}
	got := collectKinds(lx)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestScanTypeSyntax(t *testing.T) {
	lx, _ := makeTestLexer(t, "let x: ?Async<Box<int>> = await this.load();")
	want := []token.Kind{
		token.KwLet, token.Ident, token.Colon,
		token.Question, token.Ident, token.Lt, token.Ident, token.Lt, token.Ident,
		token.Gt, token.Gt,
		token.Assign, token.KwAwait, token.KwThis, token.Dot, token.Ident,
		token.LParen, token.RParen, token.Semicolon, token.EOF,
	}
	got := collectKinds(lx)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		text  string
	}{
		{"42", token.IntLit, "42"},
		{"0", token.IntLit, "0"},
		{"3.14", token.FloatLit, "3.14"},
		{"1e9", token.FloatLit, "1e9"},
		{"2.5e-3", token.FloatLit, "2.5e-3"},
		{`"hi\n"`, token.StringLit, `"hi\n"`},
		{`"quote \" inside"`, token.StringLit, `"quote \" inside"`},
		{"true", token.KwTrue, "true"},
		{"null", token.KwNull, "null"},
	}
	for _, tt := range tests {
		lx, bag := makeTestLexer(t, tt.input)
		tok := lx.Next()
		if tok.Kind != tt.kind {
			t.Fatalf("%q: kind = %v, want %v", tt.input, tok.Kind, tt.kind)
		}
		if tok.Text != tt.text {
			t.Fatalf("%q: text = %q, want %q", tt.input, tok.Text, tt.text)
		}
		if bag.HasErrors() {
			t.Fatalf("%q: unexpected diagnostics: %v", tt.input, bag.Items())
		}
	}
}

func TestDotAfterIntIsMemberAccess(t *testing.T) {
	// "1.foo" это IntLit Dot Ident, а не FloatLit.
	lx, _ := makeTestLexer(t, "1.foo")
	want := []token.Kind{token.IntLit, token.Dot, token.Ident, token.EOF}
	got := collectKinds(lx)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLineCommentsSkipped(t *testing.T) {
	lx, _ := makeTestLexer(t, "// заголовок\nlet x = 1; // tail\n")
	want := []token.Kind{token.KwLet, token.Ident, token.Assign, token.IntLit, token.Semicolon, token.EOF}
	got := collectKinds(lx)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer(t, "fn x")
	if p := lx.Peek(); p.Kind != token.KwFn {
		t.Fatalf("Peek = %v, want KwFn", p.Kind)
	}
	if n := lx.Next(); n.Kind != token.KwFn {
		t.Fatalf("Next after Peek = %v, want KwFn", n.Kind)
	}
	if n := lx.Next(); n.Kind != token.Ident {
		t.Fatalf("second Next = %v, want Ident", n.Kind)
	}
}

func TestUnterminatedString(t *testing.T) {
	lx, bag := makeTestLexer(t, "\"oops\nlet")
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Fatalf("kind = %v, want Invalid", tok.Kind)
	}
	if !bag.HasErrors() {
		t.Fatal("expected a diagnostic for unterminated string")
	}
	if got := bag.Items()[0].Code; got != diag.LexUnterminatedString {
		t.Fatalf("code = %v, want LexUnterminatedString", got)
	}
	// лексер продолжает после ошибки
	if n := lx.Next(); n.Kind != token.KwLet {
		t.Fatalf("token after error = %v, want KwLet", n.Kind)
	}
}

func TestUnknownChar(t *testing.T) {
	lx, bag := makeTestLexer(t, "let @ x")
	kinds := collectKinds(lx)
	want := []token.Kind{token.KwLet, token.Invalid, token.Ident, token.EOF}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, kinds[i], want[i])
		}
	}
	if got := bag.Items()[0].Code; got != diag.LexUnknownChar {
		t.Fatalf("code = %v, want LexUnknownChar", got)
	}
}

func TestEOFIsSticky(t *testing.T) {
	lx, _ := makeTestLexer(t, "")
	for i := 0; i < 3; i++ {
		if tok := lx.Next(); tok.Kind != token.EOF {
			t.Fatalf("call %d: kind = %v, want EOF", i, tok.Kind)
		}
	}
}
