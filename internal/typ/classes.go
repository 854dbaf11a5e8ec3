package typ

// ElemBase — имя встроенного корня элементных классов.
const ElemBase = "Elem"

// ClassInfo describes one declared class: its type parameter names and its
// parent edge. Parent may reference the class's own parameters through
// ParamRef nodes and is nil for hierarchy roots.
type ClassInfo struct {
	Name   string
	Params []string
	Parent Type
	Elem   bool
}

// ClassTable is the nominal hierarchy used by subtype walks. Built once per
// run from the declaration index, then only read.
type ClassTable struct {
	byName map[string]*ClassInfo
}

// NewClassTable returns a table pre-seeded with the builtin Elem root.
func NewClassTable() *ClassTable {
	tbl := &ClassTable{byName: make(map[string]*ClassInfo)}
	tbl.Add(&ClassInfo{Name: ElemBase, Elem: true})
	return tbl
}

// Add registers info, replacing any previous entry with the same name.
func (t *ClassTable) Add(info *ClassInfo) {
	t.byName[info.Name] = info
}

// Lookup returns the named class, or nil.
func (t *ClassTable) Lookup(name string) *ClassInfo {
	if t == nil {
		return nil
	}
	return t.byName[name]
}

// Len reports the number of registered classes.
func (t *ClassTable) Len() int { return len(t.byName) }

// ParentOf instantiates the parent edge of c with c's own type arguments.
// ok=false when c names an unknown class or a hierarchy root.
func (t *ClassTable) ParentOf(c *Class) (Type, bool) {
	info := t.Lookup(c.Name)
	if info == nil || info.Parent == nil {
		return nil, false
	}
	return Instantiate(info.Parent, c.Args), true
}

// Instantiate substitutes ParamRef nodes in template with args. Out-of-range
// references become Unknown; на практике это означает битую arity в таблице.
func Instantiate(template Type, args []Type) Type {
	switch x := template.(type) {
	case *ParamRef:
		if x.Index < 0 || x.Index >= len(args) {
			return Unk
		}
		return args[x.Index]
	case *Class:
		if len(x.Args) == 0 {
			return x
		}
		out := make([]Type, len(x.Args))
		for i, a := range x.Args {
			out[i] = Instantiate(a, args)
		}
		return &Class{Name: x.Name, Args: out}
	case *Nullable:
		return &Nullable{Elem: Instantiate(x.Elem, args)}
	case *Async:
		return &Async{Elem: Instantiate(x.Elem, args)}
	case *ThisDep:
		return &ThisDep{Under: Instantiate(x.Under, args)}
	default:
		return template
	}
}
