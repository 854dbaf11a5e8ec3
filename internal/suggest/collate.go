package suggest

// Bucket is the ordered candidate set for one location. Order is declaration
// order: the order observations were recorded in, preserved across shards by
// collating once over the concatenated lists.
type Bucket struct {
	Key LocationKey
	Obs []Observation
}

// Buckets is the collation result: per-key buckets plus stable key order.
type Buckets struct {
	order []LocationKey
	byKey map[LocationKey]*Bucket
}

// Len reports the number of distinct locations.
func (b *Buckets) Len() int { return len(b.order) }

// Keys returns the location keys in first-seen order.
func (b *Buckets) Keys() []LocationKey { return b.order }

// Get returns the bucket for key, or nil.
func (b *Buckets) Get(key LocationKey) *Bucket { return b.byKey[key] }

// Collate groups raw observations by location key. When files is non-nil,
// observations pointing outside it are dropped. Наблюдения с Unknown не
// записываются ещё на стадии чекинга, здесь они не фильтруются.
func Collate(obs []Observation, files map[string]bool) *Buckets {
	out := &Buckets{byKey: make(map[LocationKey]*Bucket)}
	for _, o := range obs {
		if files != nil && !files[o.Key.Path] {
			continue
		}
		bucket, ok := out.byKey[o.Key]
		if !ok {
			bucket = &Bucket{Key: o.Key}
			out.byKey[o.Key] = bucket
			out.order = append(out.order, o.Key)
		}
		bucket.Obs = append(bucket.Obs, o)
	}
	return out
}

// Shard partitions the buckets into at most n contiguous shards without
// splitting a bucket. Fewer shards come back when there are fewer buckets.
func (b *Buckets) Shard(n int) [][]*Bucket {
	if n < 1 {
		n = 1
	}
	total := len(b.order)
	if total == 0 {
		return nil
	}
	if n > total {
		n = total
	}
	out := make([][]*Bucket, 0, n)
	per := total / n
	rem := total % n
	idx := 0
	for s := 0; s < n; s++ {
		size := per
		if s < rem {
			size++
		}
		shard := make([]*Bucket, 0, size)
		for i := 0; i < size; i++ {
			shard = append(shard, b.byKey[b.order[idx]])
			idx++
		}
		out = append(out, shard)
	}
	return out
}
