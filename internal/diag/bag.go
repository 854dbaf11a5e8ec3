package diag

import (
	"sort"
)

// Bag accumulates diagnostics up to a fixed cap.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1
	}
	return &Bag{
		items: make([]Diagnostic, 0, max),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит уже достигнут.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether the bag holds at least one error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge объединяет диагностики из другого Bag, расширяя лимит при нужде.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, start, end, severity (desc), code for a
// stable, deterministic output order.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}
