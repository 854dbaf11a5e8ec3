// Package unify implements structural unification, nominal subtyping and
// substitution application over the typ algebra. Все три операции принимают
// deadline.Guard и возвращают ошибки значениями; паник здесь нет.
package unify

import (
	"fmt"

	"vesna/internal/deadline"
	"vesna/internal/typ"
	"vesna/internal/typenv"
)

// walkVar follows variable bindings in env until a non-variable or an unbound
// variable is reached. Merged environments can contain binding cycles, so the
// walk carries a seen set.
func walkVar(env *typenv.Env, t typ.Type) typ.Type {
	var seen map[uint64]bool
	for {
		v, ok := t.(*typ.Var)
		if !ok {
			return t
		}
		bound, ok := env.Binding(v.ID)
		if !ok {
			return t
		}
		if seen == nil {
			seen = make(map[uint64]bool)
		}
		if seen[v.ID] {
			return t
		}
		seen[v.ID] = true
		t = bound
	}
}

func bindVar(env *typenv.Env, v *typ.Var, t typ.Type, g *deadline.Guard) (typ.Type, error) {
	if other, ok := t.(*typ.Var); ok && other.ID == v.ID {
		return v, nil
	}
	resolved, err := Resolve(env, t, g)
	if err != nil {
		return nil, err
	}
	if typ.Contains(resolved, v) {
		return nil, fmt.Errorf("%w: %s occurs in %s", typ.ErrMismatch, v, resolved)
	}
	env.Bind(v.ID, t)
	return t, nil
}

// Unify unifies a and b, binding variables through env. On success the
// returned type is the common shape; on mismatch the error wraps
// typ.ErrMismatch and env may hold partial bindings (callers treat failed
// unification as "try the next strategy", so partial bindings are harmless).
func Unify(env *typenv.Env, a, b typ.Type, g *deadline.Guard) (typ.Type, error) {
	if err := g.Check(); err != nil {
		return nil, err
	}

	a = walkVar(env, a)
	b = walkVar(env, b)

	// Unknown — это "ничего не известно": уступает любой стороне.
	if typ.IsUnknown(a) {
		return b, nil
	}
	if typ.IsUnknown(b) {
		return a, nil
	}

	if av, ok := a.(*typ.Var); ok {
		return bindVar(env, av, b, g)
	}
	if bv, ok := b.(*typ.Var); ok {
		return bindVar(env, bv, a, g)
	}

	switch x := a.(type) {
	case *typ.Prim:
		if y, ok := b.(*typ.Prim); ok && x.Kind == y.Kind {
			return x, nil
		}
	case *typ.Class:
		y, ok := b.(*typ.Class)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			break
		}
		args := make([]typ.Type, len(x.Args))
		for i := range x.Args {
			u, err := Unify(env, x.Args[i], y.Args[i], g)
			if err != nil {
				return nil, err
			}
			args[i] = u
		}
		return &typ.Class{Name: x.Name, Args: args}, nil
	case *typ.Nullable:
		if y, ok := b.(*typ.Nullable); ok {
			elem, err := Unify(env, x.Elem, y.Elem, g)
			if err != nil {
				return nil, err
			}
			return &typ.Nullable{Elem: elem}, nil
		}
	case *typ.Async:
		if y, ok := b.(*typ.Async); ok {
			elem, err := Unify(env, x.Elem, y.Elem, g)
			if err != nil {
				return nil, err
			}
			return &typ.Async{Elem: elem}, nil
		}
	case *typ.ThisDep:
		if y, ok := b.(*typ.ThisDep); ok {
			under, err := Unify(env, x.Under, y.Under, g)
			if err != nil {
				return nil, err
			}
			return &typ.ThisDep{Under: under}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s vs %s", typ.ErrMismatch, a, b)
}
