package parser

import (
	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/token"
)

// parseType разбирает тип аннотации: `?T`, `Name`, `Name<T...>`.
func (p *Parser) parseType() (ast.TypeExpr, bool) {
	if p.at(token.Question) {
		q := p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.OptionType{Elem: elem, Sp: q.Span.Cover(elem.Span())}, true
	}

	name, ok := p.expect(token.Ident, diag.SynExpectType, "expected type name")
	if !ok {
		return nil, false
	}
	ty := &ast.NamedType{Name: name.Text, Sp: name.Span}
	if !p.at(token.Lt) {
		return ty, true
	}

	p.advance()
	for {
		arg, ok := p.parseType()
		if !ok {
			return nil, false
		}
		ty.Args = append(ty.Args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	gt, ok := p.expect(token.Gt, diag.SynUnclosedDelim, "expected '>' after type arguments")
	if !ok {
		return nil, false
	}
	ty.Sp = name.Span.Cover(gt.Span)
	return ty, true
}
