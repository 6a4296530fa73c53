// Package iterseq provides lazy, restartable, ordered sequences of
// elements used as the backing store for RDD partitions.
//
// # Overview
//
// An IteratorSeq is a finite ordered sequence that knows its own size
// without materializing every element. Two concrete families exist:
//
//   - RangeSequence: a numeric arithmetic progression (start, end, step),
//     with O(1) Size and At.
//   - VectorSequence: a slice-backed sequence for arbitrary element types.
//
// Both satisfy the Sequence[T] interface, which is the contract
// internal/rdd partitions are built on.
package iterseq
