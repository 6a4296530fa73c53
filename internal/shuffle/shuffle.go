package shuffle

// Pair is a key/value tuple, the element type PairRDDs carry.
type Pair[K comparable, V any] struct {
	Key K
	Val V
}

// HashFunc computes a 64-bit hash for a key. Callers are responsible for
// providing a function consistent across all partitions of a shuffle.
type HashFunc[K comparable] func(K) int64

// Route buckets pairs by destination partition, preserving arrival order
// within each bucket. len(result) == divider.NumPartitions().
func Route[K comparable, V any](pairs []Pair[K, V], hash HashFunc[K], divider HashDivider) [][]Pair[K, V] {
	buckets := make([][]Pair[K, V], divider.NumPartitions())
	for _, p := range pairs {
		idx := divider.GetPartition(hash(p.Key))
		buckets[idx] = append(buckets[idx], p)
	}
	return buckets
}

// ReduceByKey collapses all values sharing a key within a single
// destination bucket using combine, which must be associative. Output
// order follows first-occurrence order of each key within the bucket.
func ReduceByKey[K comparable, V any](bucket []Pair[K, V], combine func(a, b V) V) []Pair[K, V] {
	index := make(map[K]int, len(bucket))
	out := make([]Pair[K, V], 0, len(bucket))
	for _, p := range bucket {
		if i, ok := index[p.Key]; ok {
			out[i].Val = combine(out[i].Val, p.Val)
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}

// GroupByKey collects all values sharing a key within a bucket into a
// slice, preserving arrival order.
func GroupByKey[K comparable, V any](bucket []Pair[K, V]) []Pair[K, []V] {
	index := make(map[K]int, len(bucket))
	out := make([]Pair[K, []V], 0, len(bucket))
	for _, p := range bucket {
		if i, ok := index[p.Key]; ok {
			out[i].Val = append(out[i].Val, p.Val)
			continue
		}
		index[p.Key] = len(out)
		out = append(out, Pair[K, []V]{Key: p.Key, Val: []V{p.Val}})
	}
	return out
}

// CoGroup groups two buckets sharing the same key space into
// (key, leftValues, rightValues) triples. Keys present in only one side
// get a nil slice for the other.
func CoGroup[K comparable, A, B any](left []Pair[K, A], right []Pair[K, B]) []Pair[K, [2]any] {
	leftGroups := groupValues(left)
	rightGroups := groupValues(right)

	order := make([]K, 0, len(leftGroups))
	seen := make(map[K]bool, len(leftGroups))
	for _, p := range left {
		if !seen[p.Key] {
			seen[p.Key] = true
			order = append(order, p.Key)
		}
	}
	for _, p := range right {
		if !seen[p.Key] {
			seen[p.Key] = true
			order = append(order, p.Key)
		}
	}

	out := make([]Pair[K, [2]any], 0, len(order))
	for _, k := range order {
		out = append(out, Pair[K, [2]any]{Key: k, Val: [2]any{leftGroups[k], rightGroups[k]}})
	}
	return out
}

func groupValues[K comparable, V any](pairs []Pair[K, V]) map[K][]V {
	groups := make(map[K][]V)
	for _, p := range pairs {
		groups[p.Key] = append(groups[p.Key], p.Val)
	}
	return groups
}

// Join produces the ordered cross-product of values sharing a key across
// two buckets already routed to the same destination partition.
func Join[K comparable, A, B any](left []Pair[K, A], right []Pair[K, B]) []Pair[K, [2]any] {
	rightGroups := groupValues(right)
	out := make([]Pair[K, [2]any], 0, len(left))
	seen := make(map[K]bool)
	for _, lp := range left {
		if seen[lp.Key] {
			continue
		}
		seen[lp.Key] = true
		matches, ok := rightGroups[lp.Key]
		if !ok {
			continue
		}
		leftGroup := groupValues(left)[lp.Key]
		for _, lv := range leftGroup {
			for _, rv := range matches {
				out = append(out, Pair[K, [2]any]{Key: lp.Key, Val: [2]any{lv, rv}})
			}
		}
	}
	return out
}
