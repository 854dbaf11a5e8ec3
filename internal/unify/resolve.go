package unify

import (
	"vesna/internal/deadline"
	"vesna/internal/typ"
	"vesna/internal/typenv"
)

// Resolve applies env's substitution to t recursively. Variables bound in a
// cycle (possible after merging environments) are left in place; unbound
// variables likewise. Печать потом сама отвергнет то, что не разрешилось.
func Resolve(env *typenv.Env, t typ.Type, g *deadline.Guard) (typ.Type, error) {
	return resolve(env, t, g, nil)
}

func resolve(env *typenv.Env, t typ.Type, g *deadline.Guard, seen map[uint64]bool) (typ.Type, error) {
	if err := g.Check(); err != nil {
		return nil, err
	}
	switch x := t.(type) {
	case *typ.Var:
		bound, ok := env.Binding(x.ID)
		if !ok || seen[x.ID] {
			return x, nil
		}
		if seen == nil {
			seen = make(map[uint64]bool)
		}
		seen[x.ID] = true
		out, err := resolve(env, bound, g, seen)
		delete(seen, x.ID)
		return out, err
	case *typ.Class:
		if len(x.Args) == 0 {
			return x, nil
		}
		args := make([]typ.Type, len(x.Args))
		for i, a := range x.Args {
			r, err := resolve(env, a, g, seen)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return &typ.Class{Name: x.Name, Args: args}, nil
	case *typ.Nullable:
		elem, err := resolve(env, x.Elem, g, seen)
		if err != nil {
			return nil, err
		}
		return &typ.Nullable{Elem: elem}, nil
	case *typ.Async:
		elem, err := resolve(env, x.Elem, g, seen)
		if err != nil {
			return nil, err
		}
		return &typ.Async{Elem: elem}, nil
	case *typ.ThisDep:
		under, err := resolve(env, x.Under, g, seen)
		if err != nil {
			return nil, err
		}
		return &typ.ThisDep{Under: under}, nil
	default:
		return t, nil
	}
}
