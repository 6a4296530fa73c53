// Package shuffle implements hash-based partition routing for
// reduce-by-key, group-by-key, and join operations over PairRDDs.
//
// # Overview
//
// A HashDivider maps a 64-bit key hash onto one of P destination
// partitions. Route, ReduceByKey, GroupByKey, and Join build on top of
// it to redistribute key/value pairs the way a shuffled RDD partition
// expects to find them: all pairs sharing a key land in the same
// destination partition, in arrival order.
package shuffle
