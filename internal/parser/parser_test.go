package parser_test

import (
	"strings"
	"testing"

	"vesna/internal/ast"
	"vesna/internal/diag"
	"vesna/internal/parser"
	"vesna/internal/source"
)

func parseString(t *testing.T, input string) (*ast.File, *diag.Bag, bool) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ves", []byte(input))
	bag := diag.NewBag(32)
	f, ok := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return f, bag, ok
}

func TestParseFunction(t *testing.T) {
	src := "fn add(a: int, b) : int { return a; }"
	f, bag, ok := parseString(t, src)
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	fns := f.Funcs()
	if len(fns) != 1 {
		t.Fatalf("got %d functions, want 1", len(fns))
	}
	fn := fns[0]
	if fn.Name != "add" {
		t.Fatalf("name = %q, want add", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
	if fn.Params[0].Type == nil {
		t.Fatal("param a should be annotated")
	}
	if fn.Params[1].Type != nil {
		t.Fatal("param b should be unannotated")
	}
	if fn.Ret == nil {
		t.Fatal("return type should be annotated")
	}
	wantOff := uint32(strings.Index(src, ")") + 1)
	if fn.RetOff != wantOff {
		t.Fatalf("RetOff = %d, want %d", fn.RetOff, wantOff)
	}
}

func TestUnannotatedParamInsertionPoint(t *testing.T) {
	src := "fn use(items) { return items; }"
	f, _, ok := parseString(t, src)
	if !ok {
		t.Fatal("parse failed")
	}
	p := f.Funcs()[0].Params[0]
	wantEnd := uint32(strings.Index(src, "items") + len("items"))
	if p.NameSpan.End != wantEnd {
		t.Fatalf("param name end = %d, want %d", p.NameSpan.End, wantEnd)
	}
}

func TestParseClass(t *testing.T) {
	src := `
class Box<T> extends Base {
	value: T;
	cached;
	fn get() : T { return this.value; }
}
`
	f, bag, ok := parseString(t, src)
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	classes := f.Classes()
	if len(classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(classes))
	}
	cls := classes[0]
	if cls.Name != "Box" || cls.Elem {
		t.Fatalf("unexpected class header: %+v", cls)
	}
	if len(cls.TypeParams) != 1 || cls.TypeParams[0].Name != "T" {
		t.Fatalf("type params = %+v", cls.TypeParams)
	}
	ext, ok := cls.Extends.(*ast.NamedType)
	if !ok || ext.Name != "Base" {
		t.Fatalf("extends = %+v", cls.Extends)
	}
	if len(cls.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(cls.Members))
	}
	if cls.Members[0].Type == nil || cls.Members[1].Type != nil {
		t.Fatal("member annotations parsed wrong")
	}
	if cls.Method("get") == nil {
		t.Fatal("method get not found")
	}
}

func TestParseElemClass(t *testing.T) {
	f, bag, ok := parseString(t, "elem class Button { label: string; }")
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	cls := f.Classes()[0]
	if !cls.Elem {
		t.Fatal("Elem flag not set")
	}
	if cls.Extends != nil {
		t.Fatal("implicit Elem parent must stay nil in the tree")
	}
}

func TestParseStatements(t *testing.T) {
	src := `
fn work(s) {
	let x: int = 1;
	let y = s.count();
	this.total = x;
	log(y);
	return;
}
`
	f, bag, ok := parseString(t, src)
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	stmts := f.Funcs()[0].Body.Stmts
	if len(stmts) != 5 {
		t.Fatalf("got %d statements, want 5", len(stmts))
	}
	if _, ok := stmts[0].(*ast.LetStmt); !ok {
		t.Fatalf("stmt 0 = %T, want LetStmt", stmts[0])
	}
	let1 := stmts[1].(*ast.LetStmt)
	if let1.Type != nil || let1.Init == nil {
		t.Fatal("let y should be unannotated with init")
	}
	asg, ok := stmts[2].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("stmt 2 = %T, want AssignStmt", stmts[2])
	}
	if _, ok := asg.LHS.(*ast.MemberExpr); !ok {
		t.Fatalf("assign LHS = %T, want MemberExpr", asg.LHS)
	}
	if _, ok := stmts[3].(*ast.ExprStmt); !ok {
		t.Fatalf("stmt 3 = %T, want ExprStmt", stmts[3])
	}
	ret := stmts[4].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Fatal("bare return should have nil value")
	}
}

func TestParseExpressions(t *testing.T) {
	src := "fn f() { let r = await this.db.load(new Box<int>(1), \"key\"); return r; }"
	f, bag, ok := parseString(t, src)
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	let := f.Funcs()[0].Body.Stmts[0].(*ast.LetStmt)
	aw, ok := let.Init.(*ast.AwaitExpr)
	if !ok {
		t.Fatalf("init = %T, want AwaitExpr", let.Init)
	}
	call, ok := aw.X.(*ast.CallExpr)
	if !ok {
		t.Fatalf("await operand = %T, want CallExpr", aw.X)
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
	}
	callee, ok := call.Callee.(*ast.MemberExpr)
	if !ok || callee.Name != "load" {
		t.Fatalf("callee = %+v", call.Callee)
	}
	nw, ok := call.Args[0].(*ast.NewExpr)
	if !ok || nw.Class != "Box" || len(nw.TypeArgs) != 1 || len(nw.Args) != 1 {
		t.Fatalf("new expr parsed wrong: %+v", call.Args[0])
	}
}

func TestParseNestedTypes(t *testing.T) {
	f, bag, ok := parseString(t, "fn f(x: ?Async<Box<int>>) { return x; }")
	if !ok {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	opt, ok := f.Funcs()[0].Params[0].Type.(*ast.OptionType)
	if !ok {
		t.Fatalf("param type = %T, want OptionType", f.Funcs()[0].Params[0].Type)
	}
	async, ok := opt.Elem.(*ast.NamedType)
	if !ok || async.Name != "Async" || len(async.Args) != 1 {
		t.Fatalf("under option: %+v", opt.Elem)
	}
	box, ok := async.Args[0].(*ast.NamedType)
	if !ok || box.Name != "Box" || len(box.Args) != 1 {
		t.Fatalf("under async: %+v", async.Args[0])
	}
}

func TestParseErrorRecovery(t *testing.T) {
	src := `
fn broken( { }
fn fine() { return 1; }
`
	f, bag, ok := parseString(t, src)
	if ok {
		t.Fatal("expected parse errors")
	}
	if !bag.HasErrors() {
		t.Fatal("bag should hold the syntax error")
	}
	for _, fn := range f.Funcs() {
		if fn.Name == "fine" {
			return
		}
	}
	t.Fatal("parser did not recover to parse fn fine")
}

func TestAssignTargetValidation(t *testing.T) {
	_, bag, ok := parseString(t, "fn f() { f() = 1; }")
	if ok {
		t.Fatal("expected error for call as assignment target")
	}
	if !bag.HasErrors() {
		t.Fatal("expected a diagnostic")
	}
}
