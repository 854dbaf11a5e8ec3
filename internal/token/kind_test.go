package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		ident string
		kind  Kind
		ok    bool
	}{
		{"fn", KwFn, true},
		{"class", KwClass, true},
		{"elem", KwElem, true},
		{"await", KwAwait, true},
		{"Fn", Invalid, false},
		{"classes", Invalid, false},
	}
	for _, c := range cases {
		k, ok := LookupKeyword(c.ident)
		if ok != c.ok {
			t.Fatalf("LookupKeyword(%q) ok = %v, want %v", c.ident, ok, c.ok)
		}
		if ok && k != c.kind {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", c.ident, k, c.kind)
		}
	}
}

func TestTokenClassifiers(t *testing.T) {
	if !(Token{Kind: IntLit}).IsLiteral() {
		t.Fatalf("IntLit must be a literal")
	}
	if !(Token{Kind: KwNull}).IsLiteral() {
		t.Fatalf("null must count as a literal")
	}
	if (Token{Kind: Ident}).IsKeyword() {
		t.Fatalf("ident is not a keyword")
	}
	if !(Token{Kind: Ident}).IsIdent() {
		t.Fatalf("ident must be ident")
	}
}
