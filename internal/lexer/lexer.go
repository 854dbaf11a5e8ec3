package lexer

import (
	"vesna/internal/diag"
	"vesna/internal/source"
	"vesna/internal/token"
)

// Lexer производит токены по одному, с однотокенным буфером для Peek.
type Lexer struct {
	file     *source.File
	cursor   Cursor
	reporter diag.Reporter
	look     *token.Token
}

// New creates a lexer over file. reporter may be nil; diagnostics are then
// dropped and lexing continues.
func New(file *source.File, reporter diag.Reporter) *Lexer {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Lexer{
		file:     file,
		cursor:   NewCursor(file),
		reporter: reporter,
		look:     nil,
	}
}

// Next возвращает следующий значимый токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan(), Text: ""}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStartByte(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	default:
		return lx.scanPunct()
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// skipTrivia съедает пробелы и строчные комментарии "//...".
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			lx.cursor.Bump()
		case b == '/':
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '/' || b1 != '/' {
				return
			}
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		default:
			return
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}
