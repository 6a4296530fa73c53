package rdd

import "github.com/dreamware/sunway/internal/iterseq"

// Partition identifies one slice of an RDD's data by (rdd-id, index).
// Concrete kinds below are a closed sum type; a type switch over
// Partition in Compute implementations is exhaustive by construction.
type Partition interface {
	RDDID() int64
	Index() int
}

type partitionBase struct {
	rddID int64
	index int
}

func (p partitionBase) RDDID() int64 { return p.rddID }
func (p partitionBase) Index() int   { return p.index }

// parallelArrayPartition wraps a materialized slice of an in-memory
// source sequence.
type parallelArrayPartition[T any] struct {
	partitionBase
	seq iterseq.Sequence[T]
}

// mappedPartition mirrors its parent partition one-to-one; Compute
// re-derives values by mapping the parent's elements.
type mappedPartition struct {
	partitionBase
	parent Partition
}

// flatMappedPartition mirrors its parent partition one-to-one.
type flatMappedPartition struct {
	partitionBase
	parent Partition
}

// pairPartition mirrors its parent partition one-to-one.
type pairPartition struct {
	partitionBase
	parent Partition
}

// shuffledPartition has no parent: its contents are produced by routing
// every upstream partition's pairs through a HashDivider.
type shuffledPartition struct {
	partitionBase
}

// unionPartition delegates to exactly one upstream RDD's partition.
type unionPartition struct {
	partitionBase
	sourceRDDIndex int
	parent         Partition
}

var (
	_ Partition = (*parallelArrayPartition[int])(nil)
	_ Partition = (*mappedPartition)(nil)
	_ Partition = (*flatMappedPartition)(nil)
	_ Partition = (*pairPartition)(nil)
	_ Partition = (*shuffledPartition)(nil)
	_ Partition = (*unionPartition)(nil)
)
