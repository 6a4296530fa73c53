package iterseq

import "golang.org/x/exp/constraints"

// Number is the set of types a RangeSequence can be built over.
type Number interface {
	constraints.Integer | constraints.Float
}

// RangeSequence is an arithmetic progression start, start+step, ...
// bounded by end. It never materializes its elements until ToVector or
// ReduceLeft is called.
type RangeSequence[T Number] struct {
	start     T
	end       T
	step      T
	inclusive bool
}

// NewRange builds an inclusive range sequence: [start, end] stepping by
// step. step must be non-zero; its sign must agree with end-start or the
// sequence is empty.
func NewRange[T Number](start, end, step T) *RangeSequence[T] {
	return &RangeSequence[T]{start: start, end: end, step: step, inclusive: true}
}

// NewRangeExclusive builds a half-open range sequence: [start, end)
// stepping by step.
func NewRangeExclusive[T Number](start, end, step T) *RangeSequence[T] {
	return &RangeSequence[T]{start: start, end: end, step: step, inclusive: false}
}

// Size returns the number of elements the range produces, in O(1).
func (r *RangeSequence[T]) Size() int {
	if r.step == 0 {
		return 0
	}
	span := float64(r.end-r.start) / float64(r.step)
	if r.inclusive {
		if span < 0 {
			return 0
		}
		return int(span) + 1
	}
	if span <= 0 {
		return 0
	}
	n := int(span)
	// exclusive upper bound: drop the element that would land exactly on end
	if T(float64(n)*float64(r.step))+r.start == r.end {
		n--
	}
	return n + 1
}

// At returns start + i*step.
func (r *RangeSequence[T]) At(i int) T {
	if i < 0 || i >= r.Size() {
		panic("iterseq: range index out of bounds")
	}
	return r.start + T(i)*r.step
}

// ToVector materializes the full range as a slice.
func (r *RangeSequence[T]) ToVector() []T {
	n := r.Size()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(i)
	}
	return out
}

// ReduceLeft folds the range left-to-right.
func (r *RangeSequence[T]) ReduceLeft(g func(a, b T) T) []T {
	return reduceLeft(r.Size(), r.At, g)
}

// SubRange returns the half-open sub-range [start, end) of r as a new
// RangeSequence, in O(1), preserving step.
func (r *RangeSequence[T]) SubRange(start, end int) Sequence[T] {
	if end <= start {
		return NewRangeExclusive(r.start, r.start, r.step)
	}
	return NewRange(r.start+T(start)*r.step, r.start+T(end-1)*r.step, r.step)
}

var _ Sequence[int] = (*RangeSequence[int])(nil)
