package lexer

import (
	"fmt"

	"vesna/internal/diag"
	"vesna/internal/token"
)

// scanIdentOrKeyword читает ASCII идентификатор и проверяет его на ключевое слово.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	kind := token.Ident
	if kw, ok := token.LookupKeyword(text); ok {
		kind = kw
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

// Поддержка: 123, 1.0, 1e-3, 1.5e+10. Без баз и без суффиксов.
// Неверные формы — репорт через diag, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	// дробная часть: '.' допускаем только если за ней цифра, иначе '.' это Dot
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '.' && isDec(b1) {
		kind = token.FloatLit
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.reporter.Report(diag.LexBadNumber, diag.SevError, sp, "exponent has no digits")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

// scanString читает "..." с экранированием \\, \", \n, \t.
// Незакрытая строка обрывается на конце строки или файла.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote

	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.reporter.Report(diag.LexUnterminatedString, diag.SevError, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		b := lx.cursor.Bump()
		if b == '\\' {
			if !lx.cursor.EOF() {
				lx.cursor.Bump()
			}
			continue
		}
		if b == '"' {
			break
		}
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
}

// scanPunct читает односимвольные знаки. Неизвестный байт — Invalid + репорт.
func (lx *Lexer) scanPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()

	var kind token.Kind
	switch b {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '<':
		kind = token.Lt
	case '>':
		kind = token.Gt
	case ',':
		kind = token.Comma
	case '.':
		kind = token.Dot
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
	case '?':
		kind = token.Question
	case '=':
		kind = token.Assign
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.reporter.Report(diag.LexUnknownChar, diag.SevError, sp, fmt.Sprintf("unexpected character %q", rune(b)))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

// ASCII классификаторы.
func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }
