// Package check runs the per-declaration type checking pass. In record mode
// it stays silent and appends raw observations to an explicit Recorder; the
// reconciliation core later reads them back. Режим и аккумулятор задаются
// только через Options, глобальных флагов здесь нет.
package check

import (
	"fmt"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/typ"
)

// paramSig is one parameter of an indexed signature. ty is nil when the
// parameter is unannotated; for methods it may reference the owner's type
// parameters through typ.ParamRef.
type paramSig struct {
	name string
	ty   typ.Type
}

type memberSig struct {
	name string
	ty   typ.Type // nil = без аннотации
	line uint32
}

type fnSig struct {
	decl   *ast.FnDecl
	file   *ast.File
	owner  *classSig // nil для свободных функций
	params []paramSig
	ret    typ.Type // nil = без аннотации
	line   uint32
}

type classSig struct {
	decl    *ast.ClassDecl
	file    *ast.File
	params  []string
	members map[string]*memberSig
	methods map[string]*fnSig
	line    uint32
}

// Program is the signature table of one run: every declaration of the target
// file set, with annotation types lowered to the typ algebra. Построенная
// программа только читается, чекеры-шарды разделяют её без блокировок.
type Program struct {
	files   map[string]*ast.File
	Classes *typ.ClassTable
	fns     map[string]*fnSig
	classes map[string]*classSig
}

// NewProgram builds the signature table from parsed files. reporter receives
// declaration-level problems (duplicate names, unknown annotation types);
// nil silences them.
func NewProgram(files []*ast.File, reporter diag.Reporter) *Program {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	p := &Program{
		files:   make(map[string]*ast.File, len(files)),
		Classes: typ.NewClassTable(),
		fns:     make(map[string]*fnSig),
		classes: make(map[string]*classSig),
	}

	// первый проход: имена классов, чтобы лоуэринг аннотаций их видел
	for _, f := range files {
		p.files[f.Src.Path] = f
		for _, cls := range f.Classes() {
			if _, dup := p.classes[cls.Name]; dup {
				reporter.Report(diag.SynDuplicateDecl, diag.SevError, cls.NameSpan,
					fmt.Sprintf("class %s declared more than once", cls.Name))
				continue
			}
			sig := &classSig{
				decl:    cls,
				file:    f,
				members: make(map[string]*memberSig),
				methods: make(map[string]*fnSig),
				line:    f.Src.LineOf(cls.NameSpan.Start),
			}
			for _, tp := range cls.TypeParams {
				sig.params = append(sig.params, tp.Name)
			}
			p.classes[cls.Name] = sig
		}
	}

	// второй проход: таблица классов и лоуэринг сигнатур
	for _, f := range files {
		for _, cls := range f.Classes() {
			sig := p.classes[cls.Name]
			if sig == nil || sig.decl != cls {
				continue // дубликат
			}
			p.Classes.Add(p.classInfo(sig, reporter))
			for _, m := range cls.Members {
				if _, dup := sig.members[m.Name]; dup {
					reporter.Report(diag.SynDuplicateDecl, diag.SevError, m.NameSpan,
						fmt.Sprintf("member %s declared more than once", m.Name))
					continue
				}
				ms := &memberSig{name: m.Name, line: f.Src.LineOf(m.NameSpan.Start)}
				if m.Type != nil {
					ms.ty = p.lowerTemplate(m.Type, sig.params, reporter)
				}
				sig.members[m.Name] = ms
			}
			for _, m := range cls.Methods {
				if _, dup := sig.methods[m.Name]; dup {
					reporter.Report(diag.SynDuplicateDecl, diag.SevError, m.NameSpan,
						fmt.Sprintf("method %s declared more than once", m.Name))
					continue
				}
				sig.methods[m.Name] = p.fnSignature(m, f, sig, reporter)
			}
		}
		for _, fn := range f.Funcs() {
			if _, dup := p.fns[fn.Name]; dup {
				reporter.Report(diag.SynDuplicateDecl, diag.SevError, fn.NameSpan,
					fmt.Sprintf("function %s declared more than once", fn.Name))
				continue
			}
			p.fns[fn.Name] = p.fnSignature(fn, f, nil, reporter)
		}
	}
	return p
}

func (p *Program) classInfo(sig *classSig, reporter diag.Reporter) *typ.ClassInfo {
	info := &typ.ClassInfo{
		Name:   sig.decl.Name,
		Params: sig.params,
		Elem:   sig.decl.Elem,
	}
	switch {
	case sig.decl.Extends != nil:
		info.Parent = p.lowerTemplate(sig.decl.Extends, sig.params, reporter)
	case sig.decl.Elem:
		// elem class без extends наследует Elem
		info.Parent = &typ.Class{Name: typ.ElemBase}
	}
	return info
}

func (p *Program) fnSignature(fn *ast.FnDecl, f *ast.File, owner *classSig, reporter diag.Reporter) *fnSig {
	var clsParams []string
	if owner != nil {
		clsParams = owner.params
	}
	sig := &fnSig{
		decl:  fn,
		file:  f,
		owner: owner,
		line:  f.Src.LineOf(fn.NameSpan.Start),
	}
	for _, prm := range fn.Params {
		ps := paramSig{name: prm.Name}
		if prm.Type != nil {
			ps.ty = p.lowerTemplate(prm.Type, clsParams, reporter)
		}
		sig.params = append(sig.params, ps)
	}
	if fn.Ret != nil {
		sig.ret = p.lowerTemplate(fn.Ret, clsParams, reporter)
	}
	return sig
}

// lowerTemplate lowers an annotation to the typ algebra. Имена из clsParams
// становятся typ.ParamRef: шаблон инстанцируется аргументами получателя.
func (p *Program) lowerTemplate(te ast.TypeExpr, clsParams []string, reporter diag.Reporter) typ.Type {
	switch x := te.(type) {
	case *ast.OptionType:
		return typ.NullableOf(p.lowerTemplate(x.Elem, clsParams, reporter))
	case *ast.NamedType:
		return p.lowerNamed(x, clsParams, reporter)
	default:
		return typ.Unk
	}
}

func (p *Program) lowerNamed(x *ast.NamedType, clsParams []string, reporter diag.Reporter) typ.Type {
	switch x.Name {
	case "int":
		return typ.Int
	case "float":
		return typ.Float
	case "string":
		return typ.String
	case "bool":
		return typ.Bool
	case "void":
		return typ.Void
	case "mixed":
		return typ.Mixed
	case "Async":
		if len(x.Args) != 1 {
			reporter.Report(diag.TypArityMismatch, diag.SevError, x.Sp,
				fmt.Sprintf("Async takes 1 type argument, got %d", len(x.Args)))
			return typ.Unk
		}
		return typ.AsyncOf(p.lowerTemplate(x.Args[0], clsParams, reporter))
	}
	for i, name := range clsParams {
		if x.Name == name {
			if len(x.Args) != 0 {
				reporter.Report(diag.TypArityMismatch, diag.SevError, x.Sp,
					fmt.Sprintf("type parameter %s is not generic", x.Name))
				return typ.Unk
			}
			return &typ.ParamRef{Index: i}
		}
	}
	sig, ok := p.classes[x.Name]
	if !ok && x.Name != typ.ElemBase {
		reporter.Report(diag.TypUnknownTypeName, diag.SevError, x.Sp,
			fmt.Sprintf("unknown type %s", x.Name))
		return typ.Unk
	}
	var arity int
	if sig != nil {
		arity = len(sig.params)
	}
	if len(x.Args) != arity {
		reporter.Report(diag.TypArityMismatch, diag.SevError, x.Sp,
			fmt.Sprintf("%s takes %d type arguments, got %d", x.Name, arity, len(x.Args)))
		return typ.Unk
	}
	args := make([]typ.Type, len(x.Args))
	for i, a := range x.Args {
		args[i] = p.lowerTemplate(a, clsParams, reporter)
	}
	return &typ.Class{Name: x.Name, Args: args}
}

// FileNames returns the indexed paths (unordered).
func (p *Program) FileNames() []string {
	out := make([]string, 0, len(p.files))
	for path := range p.files {
		out = append(out, path)
	}
	return out
}

// lookupClassSig resolves a class by name; builtin Elem has no sig.
func (p *Program) lookupClassSig(name string) *classSig {
	return p.classes[name]
}

// memberIn walks recv's class chain for a member, instantiating templates
// with recv's type arguments. Возвращает сигнатуру и класс, где член объявлен.
func (p *Program) memberIn(recv *typ.Class, name string) (*memberSig, *classSig, typ.Type) {
	cur := recv
	for depth := 0; depth < 64; depth++ {
		sig := p.lookupClassSig(cur.Name)
		if sig == nil {
			return nil, nil, nil
		}
		if ms, ok := sig.members[name]; ok {
			var inst typ.Type
			if ms.ty != nil {
				inst = typ.Instantiate(ms.ty, cur.Args)
			}
			return ms, sig, inst
		}
		parent, ok := p.Classes.ParentOf(cur)
		if !ok {
			return nil, nil, nil
		}
		pc, ok := parent.(*typ.Class)
		if !ok {
			return nil, nil, nil
		}
		cur = pc
	}
	return nil, nil, nil
}

// methodIn walks recv's class chain for a method. Вторым результатом идут
// инстанцированные аргументы класса-объявителя: ими подставляются шаблоны
// параметров и возврата.
func (p *Program) methodIn(recv *typ.Class, name string) (*fnSig, []typ.Type) {
	cur := recv
	for depth := 0; depth < 64; depth++ {
		sig := p.lookupClassSig(cur.Name)
		if sig == nil {
			return nil, nil
		}
		if fs, ok := sig.methods[name]; ok {
			return fs, cur.Args
		}
		parent, ok := p.Classes.ParentOf(cur)
		if !ok {
			return nil, nil
		}
		pc, ok := parent.(*typ.Class)
		if !ok {
			return nil, nil
		}
		cur = pc
	}
	return nil, nil
}
