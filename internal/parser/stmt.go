package parser

import (
	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/token"
)

func (p *Parser) parseBlock() (*ast.Block, bool) {
	lbrace, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return nil, false
	}
	blk := &ast.Block{}
	for !p.at(token.RBrace) && !p.atEOF() && !p.enough() {
		st, ok := p.parseStmt()
		if !ok {
			p.resyncStmt()
			continue
		}
		blk.Stmts = append(blk.Stmts, st)
	}
	rbrace, ok := p.expect(token.RBrace, diag.SynUnclosedDelim, "expected '}'")
	if !ok {
		return nil, false
	}
	blk.Sp = lbrace.Span.Cover(rbrace.Span)
	return blk, true
}

func (p *Parser) parseStmt() (ast.Stmt, bool) {
	switch p.lx.Peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwReturn:
		return p.parseReturn()
	default:
		return p.parseExprOrAssign()
	}
}

// parseLet разбирает `let x[: T] [= expr];`.
func (p *Parser) parseLet() (ast.Stmt, bool) {
	kw := p.advance()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected name after 'let'")
	if !ok {
		return nil, false
	}
	st := &ast.LetStmt{Name: name.Text, NameSpan: name.Span}
	if p.at(token.Colon) {
		p.advance()
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		st.Type = ty
	}
	if p.at(token.Assign) {
		p.advance()
		init, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		st.Init = init
	}
	semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after let")
	if !ok {
		return nil, false
	}
	st.Sp = kw.Span.Cover(semi.Span)
	return st, true
}

func (p *Parser) parseReturn() (ast.Stmt, bool) {
	kw := p.advance()
	st := &ast.ReturnStmt{}
	if !p.at(token.Semicolon) {
		val, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		st.Value = val
	}
	semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return")
	if !ok {
		return nil, false
	}
	st.Sp = kw.Span.Cover(semi.Span)
	return st, true
}

// parseExprOrAssign разбирает `expr;` либо `lhs = expr;`.
func (p *Parser) parseExprOrAssign() (ast.Stmt, bool) {
	lhs, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.at(token.Assign) {
		switch lhs.(type) {
		case *ast.IdentExpr, *ast.MemberExpr:
		default:
			p.err(diag.SynUnexpectedToken, lhs.Span(), "assignment target must be a name or member access")
			return nil, false
		}
		p.advance()
		rhs, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after assignment")
		if !ok {
			return nil, false
		}
		return &ast.AssignStmt{LHS: lhs, RHS: rhs, Sp: lhs.Span().Cover(semi.Span)}, true
	}
	semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after expression")
	if !ok {
		return nil, false
	}
	return &ast.ExprStmt{X: lhs, Sp: lhs.Span().Cover(semi.Span)}, true
}
