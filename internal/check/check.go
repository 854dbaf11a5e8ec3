package check

import (
	"errors"
	"fmt"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/suggest"
	"vesna/internal/typ"
	"vesna/internal/typenv"
	"vesna/internal/unify"
)

// ErrDeclNotFound means the requested declaration is absent from the program.
// В режиме записи вызывающая сторона пропускает такие декларации молча.
var ErrDeclNotFound = errors.New("declaration not found")

// Options configures one Run invocation. Record switches the pass into
// observation mode: diagnostics are suppressed and every inferred type for an
// open slot lands in Recorder.
type Options struct {
	Record   bool
	Recorder *Recorder
	Reporter diag.Reporter
}

func (o Options) effectiveReporter() diag.Reporter {
	if o.Record || o.Reporter == nil {
		return diag.NopReporter{}
	}
	return o.Reporter
}

// Run type-checks one top-level declaration of one file: a free function by
// name, or a class (member initializers plus every method).
func (p *Program) Run(path, name string, opts Options) error {
	f := p.files[path]
	if f == nil {
		return fmt.Errorf("%w: file %s", ErrDeclNotFound, path)
	}
	if sig, ok := p.fns[name]; ok && sig.file == f {
		c := p.newChecker(f, opts)
		c.checkFn(sig)
		return nil
	}
	if sig, ok := p.classes[name]; ok && sig.file == f {
		p.checkClass(sig, opts)
		return nil
	}
	return fmt.Errorf("%w: %s in %s", ErrDeclNotFound, name, path)
}

// checker keeps the state of checking one declaration unit: one function,
// one method, or one class's initializers. Каждая единица получает своё
// окружение; его снимки уходят в наблюдения.
type checker struct {
	prog     *Program
	opts     Options
	reporter diag.Reporter
	env      *typenv.Env
	file     *ast.File
	this     *classSig
	thisArgs []typ.Type
	noThis   bool
	ret      typ.Type // объявленный тип возврата, уже инстанцированный
	retSig   *fnSig
	scope    map[string]typ.Type
}

func (p *Program) newChecker(f *ast.File, opts Options) *checker {
	return &checker{
		prog:     p,
		opts:     opts,
		reporter: opts.effectiveReporter(),
		env:      typenv.New(p.Classes),
		file:     f,
		scope:    make(map[string]typ.Type),
	}
}

// checkFn checks one function or method body.
func (c *checker) checkFn(sig *fnSig) {
	if sig.owner != nil {
		c.this = sig.owner
		c.thisArgs = freshArgs(len(sig.owner.params))
	}
	for _, ps := range sig.params {
		if ps.ty != nil {
			c.scope[ps.name] = typ.Instantiate(ps.ty, c.thisArgs)
			continue
		}
		// неаннотированный параметр — свежая переменная
		c.scope[ps.name] = typenv.FreshVar()
	}
	if sig.ret != nil {
		c.ret = typ.Instantiate(sig.ret, c.thisArgs)
	}
	c.retSig = sig
	if sig.decl.Body != nil {
		c.checkBlock(sig.decl.Body)
	}
}

// checkClass checks member initializers, then every method. Порядок — как в
// исходнике: от него зависит порядок наблюдений внутри бакета.
func (p *Program) checkClass(sig *classSig, opts Options) {
	init := p.newChecker(sig.file, opts)
	init.this = sig
	init.thisArgs = freshArgs(len(sig.params))
	init.noThis = true
	for _, m := range sig.decl.Members {
		ms := sig.members[m.Name]
		if ms == nil || m.Init == nil {
			continue
		}
		it := init.inferExpr(m.Init)
		if ms.ty != nil {
			init.trial(it, typ.Instantiate(ms.ty, init.thisArgs))
			continue
		}
		init.observe(sig.file.Src.Path, ms.line, suggest.KindMember, 0, it)
	}

	for _, m := range sig.decl.Methods {
		msig := sig.methods[m.Name]
		if msig == nil || msig.decl != m {
			continue
		}
		c := p.newChecker(sig.file, opts)
		c.checkFn(msig)
	}
}

func freshArgs(n int) []typ.Type {
	if n == 0 {
		return nil
	}
	out := make([]typ.Type, n)
	for i := range out {
		out[i] = typenv.FreshVar()
	}
	return out
}

func (c *checker) checkBlock(b *ast.Block) {
	for _, st := range b.Stmts {
		c.checkStmt(st)
	}
}

func (c *checker) checkStmt(st ast.Stmt) {
	switch x := st.(type) {
	case *ast.LetStmt:
		c.checkLet(x)
	case *ast.ReturnStmt:
		c.checkReturn(x)
	case *ast.AssignStmt:
		c.checkAssign(x)
	case *ast.ExprStmt:
		c.inferExpr(x.X)
	case *ast.Block:
		c.checkBlock(x)
	}
}

func (c *checker) checkLet(x *ast.LetStmt) {
	var declared typ.Type
	if x.Type != nil {
		declared = c.lowerType(x.Type)
	}
	var inferred typ.Type
	if x.Init != nil {
		inferred = c.inferExpr(x.Init)
	}
	switch {
	case declared != nil && inferred != nil:
		c.trial(inferred, declared)
		c.scope[x.Name] = declared
	case declared != nil:
		c.scope[x.Name] = declared
	case inferred != nil:
		c.scope[x.Name] = inferred
	default:
		c.scope[x.Name] = typ.Unk
	}
}

func (c *checker) checkReturn(x *ast.ReturnStmt) {
	var vt typ.Type = typ.Void
	if x.Value != nil {
		vt = c.inferExpr(x.Value)
	}
	if c.ret != nil {
		c.trial(vt, c.ret)
		return
	}
	if c.retSig == nil {
		return
	}
	// слот возврата не аннотирован: каждое return даёт наблюдение,
	// голое return наблюдает void
	c.observe(c.retSig.file.Src.Path, c.retSig.line, suggest.KindRet, 0, vt)
}

func (c *checker) checkAssign(x *ast.AssignStmt) {
	rt := c.inferExpr(x.RHS)
	switch lhs := x.LHS.(type) {
	case *ast.IdentExpr:
		lt, ok := c.scope[lhs.Name]
		if !ok {
			c.reporter.Report(diag.TypUnknownName, diag.SevError, lhs.Sp,
				fmt.Sprintf("unknown name %s", lhs.Name))
			return
		}
		c.trial(rt, lt)
	case *ast.MemberExpr:
		if _, isThis := lhs.X.(*ast.ThisExpr); isThis && c.this != nil && !c.noThis {
			recv := &typ.Class{Name: c.this.decl.Name, Args: c.thisArgs}
			ms, owner, inst := c.prog.memberIn(recv, lhs.Name)
			if ms == nil {
				c.reporter.Report(diag.TypUnknownMember, diag.SevError, lhs.NameSpan,
					fmt.Sprintf("%s has no member %s", c.this.decl.Name, lhs.Name))
				return
			}
			if inst != nil {
				c.trial(rt, inst)
				return
			}
			c.observe(owner.file.Src.Path, ms.line, suggest.KindMember, 0, rt)
			return
		}
		lt := c.inferExpr(x.LHS)
		if !typ.IsUnknown(lt) {
			c.trial(rt, lt)
		}
	}
}

// trial — пробная проверка подтипа: связывает переменные при успехе, ошибки
// глотает в обоих режимах (проверка корректности программы не наша задача).
func (c *checker) trial(sub, sup typ.Type) {
	_ = unify.Subtype(c.env, sub, sup, nil)
}

// observe records one observation with a snapshot of the current environment.
// Unknown не записывается: из него всё равно ничего не выведешь.
func (c *checker) observe(path string, line uint32, kind suggest.SlotKind, param uint16, t typ.Type) {
	if !c.opts.Record || c.opts.Recorder == nil {
		return
	}
	if t == nil || typ.IsUnknown(t) {
		return
	}
	c.opts.Recorder.Record(suggest.Observation{
		Env:  c.env.Clone(),
		Key:  suggest.LocationKey{Path: path, Line: line, Kind: kind, Param: param},
		Type: t,
	})
}

// lowerType lowers an annotation in expression position: параметры класса
// здесь уже не шаблонные ссылки, а свежие переменные текущей проверки.
func (c *checker) lowerType(te ast.TypeExpr) typ.Type {
	var clsParams []string
	if c.this != nil {
		clsParams = c.this.params
	}
	t := c.prog.lowerTemplate(te, clsParams, c.reporter)
	if len(c.thisArgs) > 0 {
		t = typ.Instantiate(t, c.thisArgs)
	}
	return t
}
