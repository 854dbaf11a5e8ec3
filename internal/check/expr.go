package check

import (
	"fmt"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/source"
	"vesna/internal/suggest"
	"vesna/internal/typ"
	"vesna/internal/typenv"
	"vesna/internal/unify"
)

// inferExpr returns the inferred type of e. Никогда не падает: всё, что
// не выводится, становится Unknown.
func (c *checker) inferExpr(e ast.Expr) typ.Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return typ.Int
	case *ast.FloatLit:
		return typ.Float
	case *ast.StringLit:
		return typ.String
	case *ast.BoolLit:
		return typ.Bool
	case *ast.NullLit:
		return typ.Null
	case *ast.IdentExpr:
		if t, ok := c.scope[x.Name]; ok {
			return t
		}
		c.reporter.Report(diag.TypUnknownName, diag.SevError, x.Sp,
			fmt.Sprintf("unknown name %s", x.Name))
		return typ.Unk
	case *ast.ThisExpr:
		if c.this == nil || c.noThis {
			c.reporter.Report(diag.TypUnknownName, diag.SevError, x.Sp,
				"this is not available here")
			return typ.Unk
		}
		return &typ.ThisDep{Under: &typ.Class{Name: c.this.decl.Name, Args: c.thisArgs}}
	case *ast.MemberExpr:
		return c.inferMember(x)
	case *ast.CallExpr:
		return c.inferCall(x)
	case *ast.NewExpr:
		return c.inferNew(x)
	case *ast.AwaitExpr:
		return c.inferAwait(x)
	default:
		return typ.Unk
	}
}

func (c *checker) inferArgs(args []ast.Expr) {
	for _, a := range args {
		c.inferExpr(a)
	}
}

// receiverClass normalizes a receiver type down to a class application:
// применяет подстановку, снимает this-зависимость и nullable-обёртку.
func (c *checker) receiverClass(t typ.Type) (*typ.Class, bool) {
	r, err := unify.Resolve(c.env, t, nil)
	if err != nil {
		return nil, false
	}
	for {
		switch x := r.(type) {
		case *typ.ThisDep:
			r = x.Under
		case *typ.Nullable:
			r = x.Elem
		case *typ.Class:
			return x, true
		default:
			return nil, false
		}
	}
}

func (c *checker) inferMember(x *ast.MemberExpr) typ.Type {
	rt := c.inferExpr(x.X)
	cls, ok := c.receiverClass(rt)
	if !ok {
		// про Unknown и несвязанные переменные сказать нечего
		if r, err := unify.Resolve(c.env, rt, nil); err == nil {
			switch r.(type) {
			case *typ.Unknown, *typ.Var:
			default:
				c.reporter.Report(diag.TypUnknownMember, diag.SevError, x.NameSpan,
					fmt.Sprintf("%s has no member %s", r, x.Name))
			}
		}
		return typ.Unk
	}
	ms, _, inst := c.prog.memberIn(cls, x.Name)
	if ms == nil {
		c.reporter.Report(diag.TypUnknownMember, diag.SevError, x.NameSpan,
			fmt.Sprintf("%s has no member %s", cls, x.Name))
		return typ.Unk
	}
	if inst == nil {
		// член без аннотации: тип неизвестен, наблюдения дают только записи
		return typ.Unk
	}
	return inst
}

func (c *checker) inferCall(x *ast.CallExpr) typ.Type {
	switch callee := x.Callee.(type) {
	case *ast.IdentExpr:
		sig, ok := c.prog.fns[callee.Name]
		if !ok {
			c.reporter.Report(diag.TypUnknownName, diag.SevError, callee.Sp,
				fmt.Sprintf("unknown function %s", callee.Name))
			c.inferArgs(x.Args)
			return typ.Unk
		}
		return c.applyArgs(x.Args, x.Sp, sig, nil)
	case *ast.MemberExpr:
		rt := c.inferExpr(callee.X)
		cls, ok := c.receiverClass(rt)
		if !ok {
			c.inferArgs(x.Args)
			return typ.Unk
		}
		sig, ownerArgs := c.prog.methodIn(cls, callee.Name)
		if sig == nil {
			c.reporter.Report(diag.TypUnknownMember, diag.SevError, callee.NameSpan,
				fmt.Sprintf("%s has no method %s", cls, callee.Name))
			c.inferArgs(x.Args)
			return typ.Unk
		}
		return c.applyArgs(x.Args, x.Sp, sig, ownerArgs)
	default:
		c.reporter.Report(diag.TypNotCallable, diag.SevError, x.Sp,
			"expression is not callable")
		c.inferArgs(x.Args)
		return typ.Unk
	}
}

// applyArgs checks a call against sig. Аргументы к аннотированным параметрам
// проверяются пробно (и связывают переменные дженериков); аргументы к
// открытым слотам дают наблюдения с ключом на строке декларации вызываемого.
func (c *checker) applyArgs(args []ast.Expr, sp source.Span, sig *fnSig, ownerArgs []typ.Type) typ.Type {
	if len(args) != len(sig.params) {
		c.reporter.Report(diag.TypArityMismatch, diag.SevError, sp,
			fmt.Sprintf("%s takes %d arguments, got %d", sig.decl.Name, len(sig.params), len(args)))
	}
	for i, arg := range args {
		at := c.inferExpr(arg)
		if i >= len(sig.params) {
			continue
		}
		ps := sig.params[i]
		if ps.ty != nil {
			c.trial(at, typ.Instantiate(ps.ty, ownerArgs))
			continue
		}
		c.observe(sig.file.Src.Path, sig.line, suggest.KindParam, uint16(i), at)
	}
	if sig.ret == nil {
		return typ.Unk
	}
	return typ.Instantiate(sig.ret, ownerArgs)
}

// inferNew types `new C<T...>(args)`. Без явных аргументов типов параметры
// дженерик-класса получают свежие переменные из глобального счётчика.
func (c *checker) inferNew(x *ast.NewExpr) typ.Type {
	sig := c.prog.lookupClassSig(x.Class)
	if sig == nil {
		if x.Class == typ.ElemBase {
			c.inferArgs(x.Args)
			return &typ.Class{Name: typ.ElemBase}
		}
		c.reporter.Report(diag.TypUnknownName, diag.SevError, x.ClassSp,
			fmt.Sprintf("unknown class %s", x.Class))
		c.inferArgs(x.Args)
		return typ.Unk
	}

	arity := len(sig.params)
	var targs []typ.Type
	switch {
	case len(x.TypeArgs) > 0:
		if len(x.TypeArgs) != arity {
			c.reporter.Report(diag.TypArityMismatch, diag.SevError, x.Sp,
				fmt.Sprintf("%s takes %d type arguments, got %d", x.Class, arity, len(x.TypeArgs)))
		}
		targs = freshArgs(arity)
		for i, ta := range x.TypeArgs {
			if i >= arity {
				break
			}
			targs[i] = c.lowerType(ta)
		}
	default:
		targs = freshArgs(arity)
	}
	recv := &typ.Class{Name: x.Class, Args: targs}

	if initSig, ok := sig.methods["init"]; ok {
		c.applyArgs(x.Args, x.Sp, initSig, targs)
	} else if len(x.Args) > 0 {
		c.reporter.Report(diag.TypArityMismatch, diag.SevError, x.Sp,
			fmt.Sprintf("%s has no init method, got %d arguments", x.Class, len(x.Args)))
		c.inferArgs(x.Args)
	}
	return recv
}

func (c *checker) inferAwait(x *ast.AwaitExpr) typ.Type {
	t := c.inferExpr(x.X)
	r, err := unify.Resolve(c.env, t, nil)
	if err != nil {
		return typ.Unk
	}
	if d, ok := r.(*typ.ThisDep); ok {
		r = d.Under
	}
	switch y := r.(type) {
	case *typ.Async:
		return y.Elem
	case *typ.Var:
		// ждём чего-то неизвестного: фиксируем, что это Async
		elem := typenv.FreshVar()
		c.env.Bind(y.ID, typ.AsyncOf(elem))
		return elem
	case *typ.Unknown:
		return typ.Unk
	default:
		c.reporter.Report(diag.TypNotAwaitable, diag.SevError, x.Sp,
			fmt.Sprintf("%s is not awaitable", r))
		return typ.Unk
	}
}
