package ast

import (
	"vesna/internal/source"
)

// Stmt is a statement inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Block is `{ stmts }`.
type Block struct {
	Stmts []Stmt
	Sp    source.Span
}

func (b *Block) Span() source.Span { return b.Sp }
func (b *Block) stmtNode()         {}

// LetStmt is `let x[: T] [= expr];`.
type LetStmt struct {
	Name     string
	NameSpan source.Span
	Type     TypeExpr // nil when unannotated
	Init     Expr     // nil when absent
	Sp       source.Span
}

func (s *LetStmt) Span() source.Span { return s.Sp }
func (s *LetStmt) stmtNode()         {}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value Expr // nil for bare return
	Sp    source.Span
}

func (s *ReturnStmt) Span() source.Span { return s.Sp }
func (s *ReturnStmt) stmtNode()         {}

// AssignStmt is `lhs = expr;` where lhs is an identifier or member access.
type AssignStmt struct {
	LHS Expr
	RHS Expr
	Sp  source.Span
}

func (s *AssignStmt) Span() source.Span { return s.Sp }
func (s *AssignStmt) stmtNode()         {}

// ExprStmt is a bare expression followed by ';'.
type ExprStmt struct {
	X  Expr
	Sp source.Span
}

func (s *ExprStmt) Span() source.Span { return s.Sp }
func (s *ExprStmt) stmtNode()         {}
