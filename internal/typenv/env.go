// Package typenv holds typing environments: variable bindings produced while
// checking one declaration, plus the class table they were produced against.
package typenv

import (
	"sort"
	"sync/atomic"

	"vesna/internal/typ"
)

// Счётчик один на процесс: переменные из независимых окружений не должны
// сталкиваться при слиянии.
var varCounter atomic.Uint64

// FreshVar returns a type variable with a process-unique ID.
func FreshVar() *typ.Var {
	return &typ.Var{ID: varCounter.Add(1)}
}

// Env is one typing environment. Not safe for concurrent mutation; every
// worker builds its own and the resolver merges snapshots.
type Env struct {
	Classes *typ.ClassTable
	subst   map[uint64]typ.Type
}

// New returns an empty environment over the given class table.
func New(classes *typ.ClassTable) *Env {
	return &Env{
		Classes: classes,
		subst:   make(map[uint64]typ.Type),
	}
}

// Bind records id := t, replacing any previous binding.
func (e *Env) Bind(id uint64, t typ.Type) {
	e.subst[id] = t
}

// Binding returns the direct binding of id, if any.
func (e *Env) Binding(id uint64) (typ.Type, bool) {
	t, ok := e.subst[id]
	return t, ok
}

// Len reports the number of bindings.
func (e *Env) Len() int { return len(e.subst) }

// IDs returns the bound variable IDs in ascending order.
func (e *Env) IDs() []uint64 {
	out := make([]uint64, 0, len(e.subst))
	for id := range e.subst {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy sharing the class table.
func (e *Env) Clone() *Env {
	out := &Env{
		Classes: e.Classes,
		subst:   make(map[uint64]typ.Type, len(e.subst)),
	}
	for id, t := range e.subst {
		out.subst[id] = t
	}
	return out
}

// Merge unions two environments without mutating either. Bindings of pref win
// on collision; clean=false reports that at least one binding of other was
// shadowed by a structurally different one. Колизии с равными значениями
// чистоту не портят.
func Merge(pref, other *Env) (*Env, bool) {
	if pref == nil && other == nil {
		return nil, true
	}
	// результат всегда независим от входов: его можно связывать дальше
	if pref == nil {
		return other.Clone(), true
	}
	if other == nil {
		return pref.Clone(), true
	}
	classes := pref.Classes
	if classes == nil {
		classes = other.Classes
	}
	out := &Env{
		Classes: classes,
		subst:   make(map[uint64]typ.Type, len(pref.subst)+len(other.subst)),
	}
	for id, t := range other.subst {
		out.subst[id] = t
	}
	clean := true
	for id, t := range pref.subst {
		if prev, ok := out.subst[id]; ok && !typ.Equal(prev, t) {
			clean = false
		}
		out.subst[id] = t
	}
	return out, clean
}
