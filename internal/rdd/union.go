package rdd

import "context"

// UnionRDD concatenates the partitions of several RDDs of the same
// element type without copying any data; its partition count is the
// sum of its sources' partition counts.
type UnionRDD[T any] struct {
	core
	sources    []parentSource[T]
	partitions []Partition
}

// Union builds a UnionRDD over rdds, in order.
func Union[T any](rdds ...RDD[T]) *UnionRDD[T] {
	u := &UnionRDD[T]{core: newCore()}
	for srcIdx, r := range rdds {
		u.sources = append(u.sources, r)
		for _, pp := range r.Partitions() {
			u.partitions = append(u.partitions, &unionPartition{
				partitionBase:  partitionBase{rddID: u.id, index: len(u.partitions)},
				sourceRDDIndex: srcIdx,
				parent:         pp,
			})
		}
	}
	return u
}

func (u *UnionRDD[T]) Partitions() []Partition { return u.partitions }

func (u *UnionRDD[T]) Compute(ctx context.Context, p Partition) ([]T, error) {
	up, ok := p.(*unionPartition)
	if !ok {
		panic("rdd: partition does not belong to this UnionRDD")
	}
	return u.sources[up.sourceRDDIndex].Compute(ctx, up.parent)
}

var _ RDD[int] = (*UnionRDD[int])(nil)
