package rdd

import (
	"context"

	"github.com/dreamware/sunway/internal/iterseq"
)

// ParallelArray is a leaf RDD backed directly by an in-memory
// iterseq.Sequence, split into partitions by Slice.
type ParallelArray[T any] struct {
	core
	partitions []Partition
	slices     map[int]iterseq.Sequence[T]
}

// Parallelize splits seq into numSlices partitions using the slicing
// algorithm from spec §4.3: g = size/numSlices; the first numSlices-1
// partitions get g elements each, and the last absorbs the remainder.
// numSlices < 1 produces a zero-partition RDD; no error is returned
// and no warning is logged.
func Parallelize[T any](seq iterseq.Sequence[T], numSlices int) *ParallelArray[T] {
	pa := &ParallelArray[T]{core: newCore(), slices: make(map[int]iterseq.Sequence[T])}
	if numSlices < 1 {
		return pa
	}

	n := seq.Size()
	g := n / numSlices
	for i := 0; i < numSlices; i++ {
		start := i * g
		end := start + g
		if i == numSlices-1 {
			end = n
		}
		sub := sliceOf(seq, start, end)
		pa.slices[i] = sub
		pa.partitions = append(pa.partitions, &parallelArrayPartition[T]{
			partitionBase: partitionBase{rddID: pa.id, index: i},
			seq:           sub,
		})
	}
	return pa
}

// sliceOf extracts the half-open range [start, end) of seq as a new
// Sequence, preserving the range-vs-vector character of the source
// where possible so slicing stays O(1) for numeric ranges.
func sliceOf[T any](seq iterseq.Sequence[T], start, end int) iterseq.Sequence[T] {
	if r, ok := seq.(interface{ SubRange(start, end int) iterseq.Sequence[T] }); ok {
		return r.SubRange(start, end)
	}
	elems := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		elems = append(elems, seq.At(i))
	}
	return iterseq.NewVector(elems)
}

func (pa *ParallelArray[T]) Partitions() []Partition {
	return pa.partitions
}

func (pa *ParallelArray[T]) Compute(_ context.Context, p Partition) ([]T, error) {
	part, ok := p.(*parallelArrayPartition[T])
	if !ok {
		panic("rdd: partition does not belong to this ParallelArray")
	}
	return part.seq.ToVector(), nil
}

var _ RDD[int] = (*ParallelArray[int])(nil)
