package suggest_test

import (
	"testing"

	"vesna/internal/suggest"
	"vesna/internal/typ"
)

func key(path string, line uint32, kind suggest.SlotKind, param uint16) suggest.LocationKey {
	return suggest.LocationKey{Path: path, Line: line, Kind: kind, Param: param}
}

func obsAt(k suggest.LocationKey, t typ.Type) suggest.Observation {
	return suggest.Observation{Key: k, Type: t}
}

func TestCollateGroupsAndKeepsOrder(t *testing.T) {
	ka := key("a.ves", 10, suggest.KindParam, 0)
	kb := key("a.ves", 10, suggest.KindParam, 1)
	kc := key("b.ves", 3, suggest.KindRet, 0)

	obs := []suggest.Observation{
		obsAt(ka, typ.Int),
		obsAt(kb, typ.String),
		obsAt(ka, typ.Float),
		obsAt(kc, typ.Bool),
		obsAt(ka, typ.Bool),
	}
	buckets := suggest.Collate(obs, nil)
	if buckets.Len() != 3 {
		t.Fatalf("len = %d, want 3", buckets.Len())
	}
	keys := buckets.Keys()
	if keys[0] != ka || keys[1] != kb || keys[2] != kc {
		t.Fatalf("key order = %v", keys)
	}
	got := buckets.Get(ka)
	if len(got.Obs) != 3 {
		t.Fatalf("bucket a has %d observations, want 3", len(got.Obs))
	}
	// порядок внутри бакета — порядок записи
	if !typ.Equal(got.Obs[0].Type, typ.Int) || !typ.Equal(got.Obs[1].Type, typ.Float) || !typ.Equal(got.Obs[2].Type, typ.Bool) {
		t.Fatalf("bucket order broken: %v", got.Obs)
	}
}

func TestCollateDropsForeignFiles(t *testing.T) {
	obs := []suggest.Observation{
		obsAt(key("in.ves", 1, suggest.KindRet, 0), typ.Int),
		obsAt(key("out.ves", 1, suggest.KindRet, 0), typ.Int),
	}
	buckets := suggest.Collate(obs, map[string]bool{"in.ves": true})
	if buckets.Len() != 1 {
		t.Fatalf("len = %d, want 1", buckets.Len())
	}
	if buckets.Keys()[0].Path != "in.ves" {
		t.Fatalf("kept %v", buckets.Keys())
	}
}

func TestShardNeverSplitsBucket(t *testing.T) {
	var obs []suggest.Observation
	for line := uint32(1); line <= 7; line++ {
		k := key("a.ves", line, suggest.KindRet, 0)
		obs = append(obs, obsAt(k, typ.Int), obsAt(k, typ.Int))
	}
	buckets := suggest.Collate(obs, nil)

	shards := buckets.Shard(3)
	if len(shards) != 3 {
		t.Fatalf("got %d shards, want 3", len(shards))
	}
	total := 0
	seen := make(map[suggest.LocationKey]int)
	for _, shard := range shards {
		for _, b := range shard {
			total++
			seen[b.Key]++
			if len(b.Obs) != 2 {
				t.Fatalf("bucket %v split: %d obs", b.Key, len(b.Obs))
			}
		}
	}
	if total != 7 {
		t.Fatalf("shards cover %d buckets, want 7", total)
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("bucket %v assigned %d times", k, n)
		}
	}
}

func TestShardMoreWorkersThanBuckets(t *testing.T) {
	k := key("a.ves", 1, suggest.KindRet, 0)
	buckets := suggest.Collate([]suggest.Observation{obsAt(k, typ.Int)}, nil)
	shards := buckets.Shard(8)
	if len(shards) != 1 {
		t.Fatalf("got %d shards, want 1", len(shards))
	}
}

func TestPatchSetMerge(t *testing.T) {
	a := suggest.PatchSet{"a.ves": {{Line: 1, Text: "int"}}}
	b := suggest.PatchSet{
		"a.ves": {{Line: 5, Text: "string"}},
		"b.ves": {{Line: 2, Text: "Elem"}},
	}
	a.Merge(b)
	if a.Total() != 3 {
		t.Fatalf("total = %d, want 3", a.Total())
	}
	if len(a["a.ves"]) != 2 || len(a["b.ves"]) != 1 {
		t.Fatalf("merge shape wrong: %v", a)
	}
}
