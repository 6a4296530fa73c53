package rdd

import "context"

// parentSource is the narrow view a transformation needs of its parent:
// enough to compute any one of its partitions without knowing the
// parent's element type at the type-switch level.
type parentSource[T any] interface {
	Partitions() []Partition
	Compute(ctx context.Context, p Partition) ([]T, error)
	ID() int64
}

// MappedRDD applies fn to every element of its parent, one partition at
// a time. Partition count and boundaries are inherited unchanged.
type MappedRDD[U, T any] struct {
	core
	parent     parentSource[T]
	fn         func(T) U
	partitions []Partition
}

// Map builds a MappedRDD applying fn over every element of parent.
func Map[U, T any](parent RDD[T], fn func(T) U) *MappedRDD[U, T] {
	m := &MappedRDD[U, T]{core: newCore(), parent: parent, fn: fn}
	for _, pp := range parent.Partitions() {
		m.partitions = append(m.partitions, &mappedPartition{
			partitionBase: partitionBase{rddID: m.id, index: pp.Index()},
			parent:        pp,
		})
	}
	return m
}

func (m *MappedRDD[U, T]) Partitions() []Partition { return m.partitions }

func (m *MappedRDD[U, T]) Compute(ctx context.Context, p Partition) ([]U, error) {
	mp, ok := p.(*mappedPartition)
	if !ok {
		panic("rdd: partition does not belong to this MappedRDD")
	}
	parentValues, err := m.parent.Compute(ctx, mp.parent)
	if err != nil {
		return nil, err
	}
	out := make([]U, len(parentValues))
	for i, v := range parentValues {
		out[i] = m.fn(v)
	}
	return out, nil
}

var _ RDD[int] = (*MappedRDD[int, string])(nil)

// FlatMappedRDD applies fn to every element of its parent and
// concatenates the resulting slices, one partition at a time.
type FlatMappedRDD[U, T any] struct {
	core
	parent     parentSource[T]
	fn         func(T) []U
	partitions []Partition
}

// FlatMap builds a FlatMappedRDD applying fn over every element of
// parent and flattening the results.
func FlatMap[U, T any](parent RDD[T], fn func(T) []U) *FlatMappedRDD[U, T] {
	f := &FlatMappedRDD[U, T]{core: newCore(), parent: parent, fn: fn}
	for _, pp := range parent.Partitions() {
		f.partitions = append(f.partitions, &flatMappedPartition{
			partitionBase: partitionBase{rddID: f.id, index: pp.Index()},
			parent:        pp,
		})
	}
	return f
}

func (f *FlatMappedRDD[U, T]) Partitions() []Partition { return f.partitions }

func (f *FlatMappedRDD[U, T]) Compute(ctx context.Context, p Partition) ([]U, error) {
	fp, ok := p.(*flatMappedPartition)
	if !ok {
		panic("rdd: partition does not belong to this FlatMappedRDD")
	}
	parentValues, err := f.parent.Compute(ctx, fp.parent)
	if err != nil {
		return nil, err
	}
	var out []U
	for _, v := range parentValues {
		out = append(out, f.fn(v)...)
	}
	return out, nil
}

var _ RDD[int] = (*FlatMappedRDD[int, string])(nil)
