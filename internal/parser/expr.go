package parser

import (
	"fmt"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/token"
)

func (p *Parser) parseExpr() (ast.Expr, bool) {
	if p.at(token.KwAwait) {
		kw := p.advance()
		x, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.AwaitExpr{X: x, Sp: kw.Span.Cover(x.Span())}, true
	}
	prim, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	return p.parsePostfix(prim)
}

// parsePostfix навешивает `.name` и `(args)` на уже разобранный примари.
func (p *Parser) parsePostfix(x ast.Expr) (ast.Expr, bool) {
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name after '.'")
			if !ok {
				return nil, false
			}
			x = &ast.MemberExpr{X: x, Name: name.Text, NameSpan: name.Span}
		case token.LParen:
			p.advance()
			var args []ast.Expr
			for !p.at(token.RParen) && !p.atEOF() {
				arg, ok := p.parseExpr()
				if !ok {
					return nil, false
				}
				args = append(args, arg)
				if !p.at(token.Comma) {
					break
				}
				p.advance()
			}
			rparen, ok := p.expect(token.RParen, diag.SynUnclosedDelim, "expected ')' after arguments")
			if !ok {
				return nil, false
			}
			x = &ast.CallExpr{Callee: x, Args: args, Sp: x.Span().Cover(rparen.Span)}
		default:
			return x, true
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return &ast.IntLit{Text: tok.Text, Sp: tok.Span}, true
	case token.FloatLit:
		p.advance()
		return &ast.FloatLit{Text: tok.Text, Sp: tok.Span}, true
	case token.StringLit:
		p.advance()
		return &ast.StringLit{Text: tok.Text, Sp: tok.Span}, true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == token.KwTrue, Sp: tok.Span}, true
	case token.KwNull:
		p.advance()
		return &ast.NullLit{Sp: tok.Span}, true
	case token.KwThis:
		p.advance()
		return &ast.ThisExpr{Sp: tok.Span}, true
	case token.Ident:
		p.advance()
		return &ast.IdentExpr{Name: tok.Text, Sp: tok.Span}, true
	case token.KwNew:
		return p.parseNew()
	case token.LParen:
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedDelim, "expected ')'"); !ok {
			return nil, false
		}
		return inner, true
	default:
		p.err(diag.SynUnexpectedToken, p.diagSpan(),
			fmt.Sprintf("expected expression, found %s", tok.Kind))
		return nil, false
	}
}

// parseNew разбирает `new C[<T...>](args)`.
func (p *Parser) parseNew() (ast.Expr, bool) {
	kw := p.advance()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected class name after 'new'")
	if !ok {
		return nil, false
	}
	e := &ast.NewExpr{Class: name.Text, ClassSp: name.Span}
	if p.at(token.Lt) {
		p.advance()
		for {
			arg, ok := p.parseType()
			if !ok {
				return nil, false
			}
			e.TypeArgs = append(e.TypeArgs, arg)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.Gt, diag.SynUnclosedDelim, "expected '>' after type arguments"); !ok {
			return nil, false
		}
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after class name"); !ok {
		return nil, false
	}
	for !p.at(token.RParen) && !p.atEOF() {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		e.Args = append(e.Args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	rparen, ok := p.expect(token.RParen, diag.SynUnclosedDelim, "expected ')' after constructor arguments")
	if !ok {
		return nil, false
	}
	e.Sp = kw.Span.Cover(rparen.Span)
	return e, true
}
