package typenv_test

import (
	"sync"
	"testing"

	"vesna/internal/typ"
	"vesna/internal/typenv"
)

func TestFreshVarUniqueAcrossGoroutines(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[uint64]bool, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, typenv.FreshVar().ID)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate variable id %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestMergePrefWins(t *testing.T) {
	tbl := typ.NewClassTable()
	a := typenv.New(tbl)
	b := typenv.New(tbl)
	a.Bind(1, typ.Int)
	a.Bind(2, typ.String)
	b.Bind(2, typ.Float)
	b.Bind(3, typ.Bool)

	merged, clean := typenv.Merge(a, b)
	if clean {
		t.Fatal("colliding bindings with different values must report unclean")
	}
	if got, _ := merged.Binding(2); !typ.Equal(got, typ.String) {
		t.Fatalf("binding 2 = %s, want string (pref wins)", got)
	}
	if got, _ := merged.Binding(1); !typ.Equal(got, typ.Int) {
		t.Fatalf("binding 1 = %s", got)
	}
	if got, _ := merged.Binding(3); !typ.Equal(got, typ.Bool) {
		t.Fatalf("binding 3 = %s", got)
	}
	if merged.Len() != 3 {
		t.Fatalf("merged len = %d, want 3", merged.Len())
	}
}

func TestMergeEqualBindingsStayClean(t *testing.T) {
	a := typenv.New(nil)
	b := typenv.New(nil)
	a.Bind(7, typ.NullableOf(typ.Int))
	b.Bind(7, typ.NullableOf(typ.Int))
	_, clean := typenv.Merge(a, b)
	if !clean {
		t.Fatal("structurally equal collisions are clean")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := typenv.New(nil)
	b := typenv.New(nil)
	a.Bind(1, typ.Int)
	b.Bind(2, typ.Float)
	merged, _ := typenv.Merge(a, b)
	merged.Bind(9, typ.Bool)
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("inputs mutated: a=%d b=%d", a.Len(), b.Len())
	}
	if _, ok := a.Binding(9); ok {
		t.Fatal("input a gained a binding")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := typenv.New(nil)
	e.Bind(1, typ.Int)
	c := e.Clone()
	c.Bind(1, typ.Float)
	c.Bind(2, typ.Bool)
	if got, _ := e.Binding(1); !typ.Equal(got, typ.Int) {
		t.Fatalf("original changed: %s", got)
	}
	if e.Len() != 1 {
		t.Fatalf("original len = %d", e.Len())
	}
}
