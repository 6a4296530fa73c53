package rdd

import (
	"context"

	"github.com/dreamware/sunway/internal/shuffle"
)

// PairRDD applies fn to every element of its parent to produce a
// key/value pair, one partition at a time. It is the entry point for
// the shuffle-based operations ReduceByKey, GroupByKey, and Join.
type PairRDD[K comparable, V, T any] struct {
	core
	parent     parentSource[T]
	fn         func(T) shuffle.Pair[K, V]
	partitions []Partition
}

// MapToPair builds a PairRDD applying fn over every element of parent.
func MapToPair[K comparable, V, T any](parent RDD[T], fn func(T) shuffle.Pair[K, V]) *PairRDD[K, V, T] {
	pr := &PairRDD[K, V, T]{core: newCore(), parent: parent, fn: fn}
	for _, pp := range parent.Partitions() {
		pr.partitions = append(pr.partitions, &pairPartition{
			partitionBase: partitionBase{rddID: pr.id, index: pp.Index()},
			parent:        pp,
		})
	}
	return pr
}

func (pr *PairRDD[K, V, T]) Partitions() []Partition { return pr.partitions }

func (pr *PairRDD[K, V, T]) Compute(ctx context.Context, p Partition) ([]shuffle.Pair[K, V], error) {
	pp, ok := p.(*pairPartition)
	if !ok {
		panic("rdd: partition does not belong to this PairRDD")
	}
	parentValues, err := pr.parent.Compute(ctx, pp.parent)
	if err != nil {
		return nil, err
	}
	out := make([]shuffle.Pair[K, V], len(parentValues))
	for i, v := range parentValues {
		out[i] = pr.fn(v)
	}
	return out, nil
}

var _ RDD[shuffle.Pair[string, int]] = (*PairRDD[string, int, int])(nil)

// allPairs collects every upstream partition's pairs in partition-index
// order. This is the PairRDD side of "shuffle": the pre-shuffle data
// must be fully known before it can be routed to its destination
// partitions.
func allPairs[K comparable, V, T any](ctx context.Context, pr *PairRDD[K, V, T]) ([]shuffle.Pair[K, V], error) {
	var all []shuffle.Pair[K, V]
	for _, p := range pr.Partitions() {
		vals, err := pr.Compute(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, vals...)
	}
	return all, nil
}

// ReduceByKey shuffles pr's pairs into numPartitions buckets by hash(key)
// and collapses each bucket's values sharing a key with combine, which
// must be associative.
func ReduceByKey[K comparable, V, T any](ctx context.Context, pr *PairRDD[K, V, T], hash shuffle.HashFunc[K], numPartitions int, combine func(a, b V) V) (*ShuffledRDD[K, V], error) {
	pairs, err := allPairs(ctx, pr)
	if err != nil {
		return nil, err
	}
	divider := shuffle.NewHashDivider(numPartitions)
	buckets := shuffle.Route(pairs, hash, divider)
	for i, b := range buckets {
		buckets[i] = shuffle.ReduceByKey(b, combine)
	}
	return newShuffledRDD(divider, buckets), nil
}

// GroupByKey shuffles pr's pairs into numPartitions buckets and groups
// each bucket's values sharing a key into a slice.
func GroupByKey[K comparable, V, T any](ctx context.Context, pr *PairRDD[K, V, T], hash shuffle.HashFunc[K], numPartitions int) (*ShuffledRDD[K, []V], error) {
	pairs, err := allPairs(ctx, pr)
	if err != nil {
		return nil, err
	}
	divider := shuffle.NewHashDivider(numPartitions)
	buckets := shuffle.Route(pairs, hash, divider)
	grouped := make([][]shuffle.Pair[K, []V], len(buckets))
	for i, b := range buckets {
		grouped[i] = shuffle.GroupByKey(b)
	}
	return newShuffledRDD(divider, grouped), nil
}

// Join shuffles both PairRDDs through the same HashDivider and produces,
// per destination partition, the ordered cross-product of values
// sharing a key.
func Join[K comparable, A, B, TA, TB any](ctx context.Context, left *PairRDD[K, A, TA], right *PairRDD[K, B, TB], hash shuffle.HashFunc[K], numPartitions int) (*ShuffledRDD[K, [2]any], error) {
	leftPairs, err := allPairs(ctx, left)
	if err != nil {
		return nil, err
	}
	rightPairs, err := allPairs(ctx, right)
	if err != nil {
		return nil, err
	}
	divider := shuffle.NewHashDivider(numPartitions)
	leftBuckets := shuffle.Route(leftPairs, hash, divider)
	rightBuckets := shuffle.Route(rightPairs, hash, divider)

	joined := make([][]shuffle.Pair[K, [2]any], numPartitions)
	for i := 0; i < numPartitions; i++ {
		joined[i] = shuffle.Join(leftBuckets[i], rightBuckets[i])
	}
	return newShuffledRDD(divider, joined), nil
}
