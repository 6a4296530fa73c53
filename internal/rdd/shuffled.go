package rdd

import (
	"context"

	"github.com/dreamware/sunway/internal/shuffle"
)

// ShuffledRDD holds pre-routed, pre-combined key/value data, one bucket
// per destination partition. Each bucket is written exactly once by the
// shuffle that produced it.
type ShuffledRDD[K comparable, V any] struct {
	core
	divider    shuffle.HashDivider
	buckets    [][]shuffle.Pair[K, V]
	partitions []Partition
}

func newShuffledRDD[K comparable, V any](divider shuffle.HashDivider, buckets [][]shuffle.Pair[K, V]) *ShuffledRDD[K, V] {
	s := &ShuffledRDD[K, V]{core: newCore(), divider: divider, buckets: buckets}
	for i := range buckets {
		s.partitions = append(s.partitions, &shuffledPartition{
			partitionBase: partitionBase{rddID: s.id, index: i},
		})
	}
	return s
}

func (s *ShuffledRDD[K, V]) Partitions() []Partition { return s.partitions }

func (s *ShuffledRDD[K, V]) Compute(_ context.Context, p Partition) ([]shuffle.Pair[K, V], error) {
	sp, ok := p.(*shuffledPartition)
	if !ok {
		panic("rdd: partition does not belong to this ShuffledRDD")
	}
	return s.buckets[sp.index], nil
}

var _ RDD[shuffle.Pair[string, int]] = (*ShuffledRDD[string, int])(nil)
