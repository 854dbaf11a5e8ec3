package ast

import (
	"vesna/internal/source"
)

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// IntLit is an integer literal; Text keeps the source spelling.
type IntLit struct {
	Text string
	Sp   source.Span
}

func (e *IntLit) Span() source.Span { return e.Sp }
func (e *IntLit) exprNode()         {}

// FloatLit is a float literal.
type FloatLit struct {
	Text string
	Sp   source.Span
}

func (e *FloatLit) Span() source.Span { return e.Sp }
func (e *FloatLit) exprNode()         {}

// StringLit is a quoted string literal; Text includes the quotes.
type StringLit struct {
	Text string
	Sp   source.Span
}

func (e *StringLit) Span() source.Span { return e.Sp }
func (e *StringLit) exprNode()         {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Sp    source.Span
}

func (e *BoolLit) Span() source.Span { return e.Sp }
func (e *BoolLit) exprNode()         {}

// NullLit is `null`.
type NullLit struct {
	Sp source.Span
}

func (e *NullLit) Span() source.Span { return e.Sp }
func (e *NullLit) exprNode()         {}

// IdentExpr is a bare name.
type IdentExpr struct {
	Name string
	Sp   source.Span
}

func (e *IdentExpr) Span() source.Span { return e.Sp }
func (e *IdentExpr) exprNode()         {}

// ThisExpr is `this`, valid only inside methods.
type ThisExpr struct {
	Sp source.Span
}

func (e *ThisExpr) Span() source.Span { return e.Sp }
func (e *ThisExpr) exprNode()         {}

// MemberExpr is `x.name`.
type MemberExpr struct {
	X        Expr
	Name     string
	NameSpan source.Span
}

func (e *MemberExpr) Span() source.Span { return e.X.Span().Cover(e.NameSpan) }
func (e *MemberExpr) exprNode()         {}

// CallExpr is `callee(args)`; callee is an identifier or a member access.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Sp     source.Span
}

func (e *CallExpr) Span() source.Span { return e.Sp }
func (e *CallExpr) exprNode()         {}

// NewExpr is `new C<T...>(args)`. TypeArgs is nil when the application is
// implicit; the checker then instantiates fresh type variables.
type NewExpr struct {
	Class    string
	ClassSp  source.Span
	TypeArgs []TypeExpr
	Args     []Expr
	Sp       source.Span
}

func (e *NewExpr) Span() source.Span { return e.Sp }
func (e *NewExpr) exprNode()         {}

// AwaitExpr is `await x`.
type AwaitExpr struct {
	X  Expr
	Sp source.Span
}

func (e *AwaitExpr) Span() source.Span { return e.Sp }
func (e *AwaitExpr) exprNode()         {}
