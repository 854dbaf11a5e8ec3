package unify

import (
	"fmt"

	"vesna/internal/deadline"
	"vesna/internal/typ"
	"vesna/internal/typenv"
)

// inheritDepth ограничивает подъём по parent-рёбрам: битая таблица классов
// может содержать цикл наследования.
const inheritDepth = 64

// Subtype checks sub <: sup, binding variables through env where that makes
// the check succeed. Rules: reflexivity, nominal walk up the class table,
// covariant Async and Nullable, invariant class arguments, null <: ?T,
// T <: ?T, everything <: mixed.
func Subtype(env *typenv.Env, sub, sup typ.Type, g *deadline.Guard) error {
	if err := g.Check(); err != nil {
		return err
	}

	sub = walkVar(env, sub)
	sup = walkVar(env, sup)

	// Unknown с любой стороны: проверка не может опровергнуть, пропускаем.
	if typ.IsUnknown(sub) || typ.IsUnknown(sup) {
		return nil
	}

	// this-зависимый тип ведёт себя как его верхняя граница
	if d, ok := sub.(*typ.ThisDep); ok {
		return Subtype(env, d.Under, sup, g)
	}

	if v, ok := sub.(*typ.Var); ok {
		_, err := bindVar(env, v, sup, g)
		return err
	}
	if v, ok := sup.(*typ.Var); ok {
		_, err := bindVar(env, v, sub, g)
		return err
	}

	if p, ok := sup.(*typ.Prim); ok && p.Kind == typ.PMixed {
		return nil
	}

	if n, ok := sup.(*typ.Nullable); ok {
		if p, ok := sub.(*typ.Prim); ok && p.Kind == typ.PNull {
			return nil
		}
		if sn, ok := sub.(*typ.Nullable); ok {
			return Subtype(env, sn.Elem, n.Elem, g)
		}
		return Subtype(env, sub, n.Elem, g)
	}

	switch x := sub.(type) {
	case *typ.Prim:
		if y, ok := sup.(*typ.Prim); ok && x.Kind == y.Kind {
			return nil
		}
	case *typ.Async:
		if y, ok := sup.(*typ.Async); ok {
			return Subtype(env, x.Elem, y.Elem, g)
		}
	case *typ.Class:
		y, ok := sup.(*typ.Class)
		if !ok {
			break
		}
		cur := x
		for depth := 0; depth < inheritDepth; depth++ {
			if err := g.Check(); err != nil {
				return err
			}
			if cur.Name == y.Name {
				if len(cur.Args) != len(y.Args) {
					return fmt.Errorf("%w: %s vs %s (arity)", typ.ErrMismatch, cur, y)
				}
				// аргументы классов инвариантны
				for i := range cur.Args {
					if _, err := Unify(env, cur.Args[i], y.Args[i], g); err != nil {
						return err
					}
				}
				return nil
			}
			parent, ok := env.Classes.ParentOf(cur)
			if !ok {
				break
			}
			pc, ok := parent.(*typ.Class)
			if !ok {
				return Subtype(env, parent, sup, g)
			}
			cur = pc
		}
	}
	return fmt.Errorf("%w: %s is not a subtype of %s", typ.ErrMismatch, sub, sup)
}
