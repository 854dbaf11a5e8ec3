// Package typ is the type algebra of the inferencer.
//
// Values are immutable pointer nodes; equality is structural. Types that can
// appear in candidate sets but not in written annotations (Var, ThisDep,
// Unknown) are rejected by Print, not by construction.
package typ

import (
	"fmt"
	"strings"
)

// Type is one inferred or declared type.
type Type interface {
	isType()
	// String — отладочная печать, всегда тотальная. Для аннотаций см. Print.
	String() string
}

// PrimKind enumerates builtin scalar types.
type PrimKind uint8

const (
	PInt PrimKind = iota
	PFloat
	PString
	PBool
	PVoid
	PNull
	PMixed
)

// Prim is a builtin scalar type.
type Prim struct {
	Kind PrimKind
}

func (*Prim) isType() {}

func (p *Prim) String() string {
	switch p.Kind {
	case PInt:
		return "int"
	case PFloat:
		return "float"
	case PString:
		return "string"
	case PBool:
		return "bool"
	case PVoid:
		return "void"
	case PNull:
		return "null"
	case PMixed:
		return "mixed"
	default:
		return fmt.Sprintf("prim(%d)", p.Kind)
	}
}

// Singletons; всегда сравнивать структурно, а не по указателю.
var (
	Int    = &Prim{PInt}
	Float  = &Prim{PFloat}
	String = &Prim{PString}
	Bool   = &Prim{PBool}
	Void   = &Prim{PVoid}
	Null   = &Prim{PNull}
	Mixed  = &Prim{PMixed}
)

// Class is a nominal class application, possibly generic.
type Class struct {
	Name string
	Args []Type
}

func (*Class) isType() {}

func (c *Class) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "<" + strings.Join(parts, ", ") + ">"
}

// Nullable is `?T`.
type Nullable struct {
	Elem Type
}

func (*Nullable) isType() {}

func (n *Nullable) String() string { return "?" + n.Elem.String() }

// Async is `Async<T>`.
type Async struct {
	Elem Type
}

func (*Async) isType() {}

func (a *Async) String() string { return "Async<" + a.Elem.String() + ">" }

// Var is a type variable. IDs are drawn from one process-global counter so
// variables from independently built environments never collide.
type Var struct {
	ID uint64
}

func (*Var) isType() {}

func (v *Var) String() string { return fmt.Sprintf("'t%d", v.ID) }

// ThisDep is the expression-dependent type of `this`, carrying the enclosing
// class as its underlying bound. Not writable as an annotation; resolution
// strips it to Under.
type ThisDep struct {
	Under Type
}

func (*ThisDep) isType() {}

func (t *ThisDep) String() string { return "this::" + t.Under.String() }

// Unknown is the placeholder top type: the unification fold's seed and the
// "nothing could be inferred" sentinel.
type Unknown struct{}

func (*Unknown) isType() {}

func (*Unknown) String() string { return "unknown" }

// Unk is the shared Unknown value.
var Unk = &Unknown{}

// IsUnknown reports whether t is the Unknown placeholder.
func IsUnknown(t Type) bool {
	_, ok := t.(*Unknown)
	return ok
}

// ParamRef ссылается на параметр класса внутри шаблона parent-ребра таблицы
// классов. Живые типы его не содержат: Instantiate подменяет все ссылки.
type ParamRef struct {
	Index int
}

func (*ParamRef) isType() {}

func (p *ParamRef) String() string { return fmt.Sprintf("#%d", p.Index) }

// Equal reports structural equality.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *Prim:
		y, ok := b.(*Prim)
		return ok && x.Kind == y.Kind
	case *Class:
		y, ok := b.(*Class)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Nullable:
		y, ok := b.(*Nullable)
		return ok && Equal(x.Elem, y.Elem)
	case *Async:
		y, ok := b.(*Async)
		return ok && Equal(x.Elem, y.Elem)
	case *Var:
		y, ok := b.(*Var)
		return ok && x.ID == y.ID
	case *ThisDep:
		y, ok := b.(*ThisDep)
		return ok && Equal(x.Under, y.Under)
	case *Unknown:
		_, ok := b.(*Unknown)
		return ok
	case *ParamRef:
		y, ok := b.(*ParamRef)
		return ok && x.Index == y.Index
	default:
		return false
	}
}

// NullableOf wraps t in ?, collapsing the cases where the wrapper is
// redundant: ??T, ?null, ?mixed, ?unknown.
func NullableOf(t Type) Type {
	switch u := t.(type) {
	case *Nullable:
		return u
	case *Prim:
		if u.Kind == PNull || u.Kind == PMixed {
			return u
		}
	case *Unknown:
		return u
	}
	return &Nullable{Elem: t}
}

// AsyncOf wraps t in Async<>.
func AsyncOf(t Type) Type { return &Async{Elem: t} }

// Contains reports whether needle occurs anywhere inside t (occurs check).
func Contains(t Type, needle Type) bool {
	if Equal(t, needle) {
		return true
	}
	switch x := t.(type) {
	case *Class:
		for _, a := range x.Args {
			if Contains(a, needle) {
				return true
			}
		}
	case *Nullable:
		return Contains(x.Elem, needle)
	case *Async:
		return Contains(x.Elem, needle)
	case *ThisDep:
		return Contains(x.Under, needle)
	}
	return false
}
