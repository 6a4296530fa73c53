// Package rdd implements the typed transformation graph: partitioned,
// lazily-computed collections built up by map/flatMap/mapToPair/union
// and consumed by the reduce/collect actions.
//
// # Overview
//
// Every RDD[T] exposes a fixed set of Partitions and a Compute method
// that produces one partition's elements on demand. Transformations
// (Map, FlatMap, MapToPair, Union) wrap a parent RDD and never
// materialize data themselves; actions (Reduce, Collect) are the only
// operations that build task.Task batches and hand them to a driver to
// run. PairRDD additionally supports ReduceByKey, GroupByKey, and Join,
// which shuffle through internal/shuffle and produce a ShuffledRDD.
package rdd
