// Package suggest holds the reconciliation core: raw observations, collation
// into per-location buckets, and the unification-then-heuristic resolver that
// turns a bucket into at most one suggested annotation.
package suggest

import (
	"fmt"

	"vesna/internal/typ"
	"vesna/internal/typenv"
)

// SlotKind distinguishes annotation slots that can share a source line.
type SlotKind uint8

const (
	KindParam SlotKind = iota
	KindRet
	KindMember
)

func (k SlotKind) String() string {
	switch k {
	case KindParam:
		return "param"
	case KindRet:
		return "ret"
	case KindMember:
		return "member"
	default:
		return fmt.Sprintf("slot(%d)", uint8(k))
	}
}

// LocationKey uniquely identifies one annotation slot to be patched.
// Line is 1-based; Param is meaningful only for KindParam.
type LocationKey struct {
	Path  string
	Line  uint32
	Kind  SlotKind
	Param uint16
}

func (k LocationKey) String() string {
	if k.Kind == KindParam {
		return fmt.Sprintf("%s:%d#param%d", k.Path, k.Line, k.Param)
	}
	return fmt.Sprintf("%s:%d#%s", k.Path, k.Line, k.Kind)
}

// Observation is one inferred type for one slot, produced during one checking
// run together with a snapshot of that run's typing environment.
type Observation struct {
	Env  *typenv.Env
	Key  LocationKey
	Type typ.Type
}

// Suggestion is the resolved annotation for one slot.
type Suggestion struct {
	Line  uint32
	Kind  SlotKind
	Param uint16
	Type  typ.Type
	Text  string // Type в синтаксисе аннотации
}

// PatchSet maps file path to the suggestions resolved for that file.
type PatchSet map[string][]Suggestion

// Merge appends other's per-file lists to p. Порядок файлов не важен,
// поэтому слияние шардов коммутативно с точностью до порядка в списках.
func (p PatchSet) Merge(other PatchSet) {
	for path, sugs := range other {
		p[path] = append(p[path], sugs...)
	}
}

// Total counts suggestions across all files.
func (p PatchSet) Total() int {
	n := 0
	for _, sugs := range p {
		n += len(sugs)
	}
	return n
}
