package rdd

import (
	"context"
	"fmt"

	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/messaging"
	"github.com/dreamware/sunway/internal/scheduler"
	"github.com/dreamware/sunway/internal/shuffle"
	"github.com/dreamware/sunway/internal/task"
	"github.com/dreamware/sunway/internal/telemetry"
)

// Executor is the narrow view of a driver context that actions need in
// order to place and run a task batch. internal/driver.Driver implements
// this; actions never import internal/driver to avoid a cycle.
type Executor interface {
	NextJobID() int64
	Hosts() []hostconfig.Host
	SelfIndex() int
	Master() string
	Messenger() *messaging.Messenger
	Hooks() *telemetry.Hooks
	Mode() scheduler.Mode
}

// runBatch places and runs tasks through exec, registering/unregistering
// the job's scheduler with the messenger for the job's duration.
func runBatch[T any](ctx context.Context, exec Executor, tasks []*task.Task[T]) ([]*task.TaskResult[T], error) {
	jobID := exec.NextJobID()
	for _, t := range tasks {
		t.JobID = jobID
	}
	s := scheduler.New[T](jobID, exec.Hosts(), exec.SelfIndex(), exec.Master(), exec.Messenger(), exec.Hooks(), exec.Mode())
	if m := exec.Messenger(); m != nil {
		m.Register(jobID, s)
		defer m.Unregister(jobID)
	}
	return s.RunTasks(ctx, tasks)
}

// allPartitionTasks builds one task per partition of r. Each task's
// single result value is the partition's full element slice, so the
// whole partition travels as one task result.
func allPartitionTasks[T any](r RDD[T], op task.Op) []*task.Task[[]T] {
	partitions := r.Partitions()
	tasks := make([]*task.Task[[]T], len(partitions))
	for i, p := range partitions {
		p := p
		tasks[i] = task.NewTask(i, r.ID(), p.Index(), op, task.JSONCodec[[]T]{}, func(ctx context.Context) ([][]T, error) {
			values, err := r.Compute(ctx, p)
			if err != nil {
				return nil, err
			}
			return [][]T{values}, nil
		})
	}
	return tasks
}

// Collect gathers every element of r, across all partitions, in
// partition-index order.
func Collect[T any](ctx context.Context, exec Executor, r RDD[T]) ([]T, error) {
	results, err := runBatch(ctx, exec, allPartitionTasks(r, task.OpCollect))
	if err != nil {
		return nil, err
	}
	var out []T
	for _, res := range results {
		if res == nil || len(res.Value) == 0 {
			continue
		}
		out = append(out, res.Value[0]...)
	}
	return out, nil
}

// Reduce folds every element of r down to a single value with g, which
// must be associative. It returns T's zero value and logs a warning if r
// has no elements.
func Reduce[T any](ctx context.Context, exec Executor, r RDD[T], g func(a, b T) T) (T, error) {
	var zero T
	// Each task's result is a zero- or one-element slice, so an empty
	// partition contributes nothing to the final fold.
	tasks := make([]*task.Task[[]T], 0, len(r.Partitions()))
	for _, p := range r.Partitions() {
		p := p
		tasks = append(tasks, task.NewTask(len(tasks), r.ID(), p.Index(), task.OpReduce, task.JSONCodec[[]T]{}, func(ctx context.Context) ([][]T, error) {
			values, err := r.Compute(ctx, p)
			if err != nil {
				return nil, err
			}
			if len(values) == 0 {
				return nil, nil
			}
			acc := values[0]
			for _, v := range values[1:] {
				acc = g(acc, v)
			}
			return [][]T{{acc}}, nil
		}))
	}

	results, err := runBatch(ctx, exec, tasks)
	if err != nil {
		return zero, err
	}

	var partial []T
	for _, res := range results {
		if res != nil && len(res.Value) > 0 && len(res.Value[0]) > 0 {
			partial = append(partial, res.Value[0][0])
		}
	}
	if len(partial) == 0 {
		exec.Hooks().Log().Warn("rdd: reduce received empty results collection")
		return zero, nil
	}
	acc := partial[0]
	for _, v := range partial[1:] {
		acc = g(acc, v)
	}
	return acc, nil
}

// Distinct removes duplicate elements from r, implemented as
// mapToPair -> reduceByKey -> map, exactly as the source algorithm does.
// T must be comparable; hash must be a stable 64-bit hash of T.
func Distinct[T comparable](ctx context.Context, exec Executor, r RDD[T], hash shuffle.HashFunc[T], newNumSlices int) (RDD[T], error) {
	pairs := MapToPair(r, func(v T) shuffle.Pair[T, struct{}] {
		return shuffle.Pair[T, struct{}]{Key: v}
	})
	reduced, err := ReduceByKey(ctx, pairs, hash, newNumSlices, func(a, b struct{}) struct{} { return a })
	if err != nil {
		return nil, fmt.Errorf("rdd: distinct: %w", err)
	}
	return Map[T](reduced, func(p shuffle.Pair[T, struct{}]) T { return p.Key }), nil
}
