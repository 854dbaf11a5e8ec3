// Package decl builds the declaration index: per file, which declarations
// exist and which of their annotation slots are empty, with the byte offsets
// a patch would insert at. Структуры плоские и без интерфейсов — они же
// ложатся в msgpack-кэш как есть.
package decl

import (
	"sort"

	"vesna/internal/ast"
	"vesna/internal/suggest"
)

// Slot is one unannotated annotation slot of a declaration.
type Slot struct {
	Kind      suggest.SlotKind
	Param     uint16 // индекс параметра для KindParam
	Name      string // имя параметра или члена; имя функции для KindRet
	Method    string // имя метода для слотов в классе, иначе ""
	Line      uint32 // 1-based строка ключа локации
	InsertOff uint32 // байтовое смещение вставки ": T"
}

// Decl is one indexed top-level declaration.
type Decl struct {
	Name  string
	Class bool
	Line  uint32
	Slots []Slot
}

// FileIndex is the index of one source file, keyed by its content hash for
// staleness checks.
type FileIndex struct {
	Path  string
	Hash  [32]byte
	Decls []Decl
}

// SlotCount reports the number of open slots in the file.
func (fi *FileIndex) SlotCount() int {
	n := 0
	for _, d := range fi.Decls {
		n += len(d.Slots)
	}
	return n
}

// IndexFile walks one parsed file and produces its index.
func IndexFile(f *ast.File) *FileIndex {
	src := f.Src
	out := &FileIndex{Path: src.Path, Hash: src.Hash}

	for _, fn := range f.Funcs() {
		d := Decl{
			Name: fn.Name,
			Line: src.LineOf(fn.NameSpan.Start),
		}
		d.Slots = fnSlots(f, fn, "")
		out.Decls = append(out.Decls, d)
	}
	for _, cls := range f.Classes() {
		d := Decl{
			Name:  cls.Name,
			Class: true,
			Line:  src.LineOf(cls.NameSpan.Start),
		}
		for _, m := range cls.Members {
			if m.Type != nil {
				continue
			}
			d.Slots = append(d.Slots, Slot{
				Kind:      suggest.KindMember,
				Name:      m.Name,
				Line:      src.LineOf(m.NameSpan.Start),
				InsertOff: m.NameSpan.End,
			})
		}
		for _, m := range cls.Methods {
			d.Slots = append(d.Slots, fnSlots(f, m, m.Name)...)
		}
		out.Decls = append(out.Decls, d)
	}
	return out
}

// fnSlots собирает слоты одной функции или метода. Ключи параметров и
// возврата висят на строке объявления, не на строках самих параметров.
func fnSlots(f *ast.File, fn *ast.FnDecl, method string) []Slot {
	declLine := f.Src.LineOf(fn.NameSpan.Start)
	var out []Slot
	for i, p := range fn.Params {
		if p.Type != nil {
			continue
		}
		out = append(out, Slot{
			Kind:      suggest.KindParam,
			Param:     uint16(i),
			Name:      p.Name,
			Method:    method,
			Line:      declLine,
			InsertOff: p.NameSpan.End,
		})
	}
	if fn.Ret == nil {
		out = append(out, Slot{
			Kind:      suggest.KindRet,
			Name:      fn.Name,
			Method:    method,
			Line:      declLine,
			InsertOff: fn.RetOff,
		})
	}
	return out
}

// Index aggregates per-file indexes for one run.
type Index struct {
	files map[string]*FileIndex
	slots map[suggest.LocationKey]Slot
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		files: make(map[string]*FileIndex),
		slots: make(map[suggest.LocationKey]Slot),
	}
}

// Add registers fi, replacing a previous index of the same path.
func (ix *Index) Add(fi *FileIndex) {
	if old, ok := ix.files[fi.Path]; ok {
		for _, d := range old.Decls {
			for _, s := range d.Slots {
				delete(ix.slots, keyOf(old.Path, s))
			}
		}
	}
	ix.files[fi.Path] = fi
	for _, d := range fi.Decls {
		for _, s := range d.Slots {
			ix.slots[keyOf(fi.Path, s)] = s
		}
	}
}

func keyOf(path string, s Slot) suggest.LocationKey {
	return suggest.LocationKey{Path: path, Line: s.Line, Kind: s.Kind, Param: s.Param}
}

// File returns the index of one path, or nil.
func (ix *Index) File(path string) *FileIndex { return ix.files[path] }

// Slot maps a location key back to its slot. ok=false для ключей, под
// которыми в индексе нет открытого слота.
func (ix *Index) Slot(key suggest.LocationKey) (Slot, bool) {
	s, ok := ix.slots[key]
	return s, ok
}

// Files returns indexed paths in sorted order.
func (ix *Index) Files() []string {
	out := make([]string, 0, len(ix.files))
	for p := range ix.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SlotCount reports open slots across all files.
func (ix *Index) SlotCount() int { return len(ix.slots) }
