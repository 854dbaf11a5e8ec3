// Package parser builds ast trees for Vesna files by recursive descent.
package parser

import (
	"fmt"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/lexer"
	"vesna/internal/source"
	"vesna/internal/token"
)

type Options struct {
	MaxErrors uint // 0 = без лимита
	Reporter  diag.Reporter
}

// Parser — состояние парсера на один файл.
type Parser struct {
	file     *source.File
	lx       *lexer.Lexer
	opts     Options
	nerr     uint
	lastSpan source.Span
}

// ParseFile разбирает один файл. ok=false при любой синтаксической ошибке;
// дерево при этом содержит то, что удалось разобрать.
func ParseFile(f *source.File, opts Options) (*ast.File, bool) {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	p := Parser{
		file: f,
		lx:   lexer.New(f, opts.Reporter),
		opts: opts,
	}
	out := &ast.File{Src: f}
	for !p.atEOF() && !p.enough() {
		d, ok := p.parseDecl()
		if ok {
			out.Decls = append(out.Decls, d)
			continue
		}
		p.resyncTop()
	}
	return out, p.nerr == 0
}

func (p *Parser) at(k token.Kind) bool { return p.lx.Peek().Kind == k }

func (p *Parser) atEOF() bool { return p.at(token.EOF) }

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.nerr >= p.opts.MaxErrors
}

// advance съедает следующий токен и обновляет lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan — span для диагностики: у EOF берём позицию после последнего токена.
func (p *Parser) diagSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect — ожидаем конкретный токен. Если нет — репортим и возвращаем (invalid, false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.err(code, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp, Text: p.lx.Peek().Text}, false
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string) {
	p.nerr++
	p.opts.Reporter.Report(code, diag.SevError, sp, msg)
}

// resyncTop скроллит до следующего стартера декларации.
func (p *Parser) resyncTop() {
	for !p.atEOF() {
		switch p.lx.Peek().Kind {
		case token.KwFn, token.KwClass, token.KwElem:
			return
		}
		p.advance()
	}
}

// resyncStmt скроллит до ';' (съедая её) либо до '}' (оставляя).
func (p *Parser) resyncStmt() {
	for !p.atEOF() {
		switch p.lx.Peek().Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.RBrace:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseDecl() (ast.Decl, bool) {
	switch p.lx.Peek().Kind {
	case token.KwFn:
		return p.parseFn()
	case token.KwClass, token.KwElem:
		return p.parseClass()
	default:
		p.err(diag.SynUnexpectedToken, p.diagSpan(),
			fmt.Sprintf("expected declaration, found %s", p.lx.Peek().Kind))
		return nil, false
	}
}

// parseFn разбирает `fn name(params) [: R] { ... }`.
func (p *Parser) parseFn() (*ast.FnDecl, bool) {
	kw, ok := p.expect(token.KwFn, diag.SynUnexpectedToken, "expected 'fn'")
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected function name")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		return nil, false
	}

	var params []*ast.Param
	for !p.at(token.RParen) && !p.atEOF() {
		prm, ok := p.parseParam()
		if !ok {
			return nil, false
		}
		params = append(params, prm)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	rparen, ok := p.expect(token.RParen, diag.SynUnclosedDelim, "expected ')' after parameters")
	if !ok {
		return nil, false
	}

	fn := &ast.FnDecl{
		Name:     name.Text,
		NameSpan: name.Span,
		Params:   params,
		RetOff:   rparen.Span.End,
	}
	if p.at(token.Colon) {
		p.advance()
		ret, ok := p.parseType()
		if !ok {
			return nil, false
		}
		fn.Ret = ret
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	fn.Body = body
	fn.Sp = kw.Span.Cover(body.Sp)
	return fn, true
}

func (p *Parser) parseParam() (*ast.Param, bool) {
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
	if !ok {
		return nil, false
	}
	prm := &ast.Param{Name: name.Text, NameSpan: name.Span}
	if p.at(token.Colon) {
		p.advance()
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		prm.Type = ty
	}
	return prm, true
}

// parseClass разбирает `[elem] class Name<T...> [extends P] { members; methods }`.
func (p *Parser) parseClass() (*ast.ClassDecl, bool) {
	first := p.lx.Peek()
	elem := false
	if p.at(token.KwElem) {
		elem = true
		p.advance()
	}
	if _, ok := p.expect(token.KwClass, diag.SynUnexpectedToken, "expected 'class'"); !ok {
		return nil, false
	}
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected class name")
	if !ok {
		return nil, false
	}

	cls := &ast.ClassDecl{
		Name:     name.Text,
		NameSpan: name.Span,
		Elem:     elem,
	}
	if p.at(token.Lt) {
		p.advance()
		for {
			tp, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected type parameter name")
			if !ok {
				return nil, false
			}
			cls.TypeParams = append(cls.TypeParams, ast.TypeParam{Name: tp.Text, Sp: tp.Span})
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.Gt, diag.SynUnclosedDelim, "expected '>' after type parameters"); !ok {
			return nil, false
		}
	}
	if p.at(token.KwExtends) {
		p.advance()
		parent, ok := p.parseType()
		if !ok {
			return nil, false
		}
		cls.Extends = parent
	}

	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' to open class body"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.atEOF() && !p.enough() {
		if p.at(token.KwFn) {
			m, ok := p.parseFn()
			if !ok {
				p.resyncStmt()
				continue
			}
			cls.Methods = append(cls.Methods, m)
			continue
		}
		mem, ok := p.parseMember()
		if !ok {
			p.resyncStmt()
			continue
		}
		cls.Members = append(cls.Members, mem)
	}
	rbrace, ok := p.expect(token.RBrace, diag.SynUnclosedDelim, "expected '}' to close class body")
	if !ok {
		return nil, false
	}
	cls.Sp = first.Span.Cover(rbrace.Span)
	return cls, true
}

// parseMember разбирает поле `name[: T] [= expr];`.
func (p *Parser) parseMember() (*ast.Member, bool) {
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name")
	if !ok {
		return nil, false
	}
	mem := &ast.Member{Name: name.Text, NameSpan: name.Span}
	if p.at(token.Colon) {
		p.advance()
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		mem.Type = ty
	}
	if p.at(token.Assign) {
		p.advance()
		init, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		mem.Init = init
	}
	semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after member")
	if !ok {
		return nil, false
	}
	mem.Sp = name.Span.Cover(semi.Span)
	return mem, true
}
