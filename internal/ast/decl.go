package ast

import (
	"vesna/internal/source"
)

// Decl is a top-level declaration: a function or a class.
type Decl interface {
	Node
	DeclName() string
	declNode()
}

// Param is one function or method parameter. Type is nil when the parameter
// has no annotation; NameSpan.End is then the insertion point for one.
type Param struct {
	Name     string
	NameSpan source.Span
	Type     TypeExpr
}

func (p *Param) Span() source.Span {
	if p.Type != nil {
		return p.NameSpan.Cover(p.Type.Span())
	}
	return p.NameSpan
}

// FnDecl is a free function or, inside a ClassDecl, a method.
// Ret is nil when the return type is unannotated; RetOff is the byte offset
// just past the closing parenthesis where ": R" would be inserted.
type FnDecl struct {
	Name     string
	NameSpan source.Span
	Params   []*Param
	Ret      TypeExpr
	RetOff   uint32
	Body     *Block
	Sp       source.Span
}

func (d *FnDecl) Span() source.Span { return d.Sp }
func (d *FnDecl) DeclName() string  { return d.Name }
func (d *FnDecl) declNode()         {}

// Member is a class field: `name[: T] [= expr];`.
type Member struct {
	Name     string
	NameSpan source.Span
	Type     TypeExpr
	Init     Expr
	Sp       source.Span
}

func (m *Member) Span() source.Span { return m.Sp }

// TypeParam is a declared class type parameter.
type TypeParam struct {
	Name string
	Sp   source.Span
}

// ClassDecl is `class Name<T...> extends Parent { ... }`.
// Elem marks `elem class`; such classes default to extending Elem.
type ClassDecl struct {
	Name       string
	NameSpan   source.Span
	Elem       bool
	TypeParams []TypeParam
	Extends    TypeExpr // nil when absent
	Members    []*Member
	Methods    []*FnDecl
	Sp         source.Span
}

func (d *ClassDecl) Span() source.Span { return d.Sp }
func (d *ClassDecl) DeclName() string  { return d.Name }
func (d *ClassDecl) declNode()         {}

// Method returns the named method, or nil.
func (d *ClassDecl) Method(name string) *FnDecl {
	for _, m := range d.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MemberNamed returns the named field, or nil.
func (d *ClassDecl) MemberNamed(name string) *Member {
	for _, m := range d.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}
