package ast

import (
	"vesna/internal/source"
)

// TypeExpr is a type written in an annotation.
type TypeExpr interface {
	Node
	typeNode()
}

// NamedType is `Name` or `Name<Args...>`: primitives, classes, Async.
type NamedType struct {
	Name string
	Args []TypeExpr
	Sp   source.Span
}

func (t *NamedType) Span() source.Span { return t.Sp }
func (t *NamedType) typeNode()         {}

// OptionType is `?T`.
type OptionType struct {
	Elem TypeExpr
	Sp   source.Span
}

func (t *OptionType) Span() source.Span { return t.Sp }
func (t *OptionType) typeNode()         {}
