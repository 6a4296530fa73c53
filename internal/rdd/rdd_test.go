package rdd

import (
	"context"
	"hash/fnv"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/sunway/internal/iterseq"
	"github.com/dreamware/sunway/internal/shuffle"
)

func intHash(k int) int64 { return int64(k) }

func stringHash(k string) int64 {
	h := fnv.New64a()
	h.Write([]byte(k))
	return int64(h.Sum64())
}

func TestReduceRangeSumsTo5050(t *testing.T) {
	seq := iterseq.NewRange(1, 100, 1)
	pa := Parallelize[int](seq, 4)
	exec := newLocalExecutor()

	sum, err := Reduce[int](context.Background(), exec, pa, func(a, b int) int { return a + b })
	require.NoError(t, err)
	require.Equal(t, 5050, sum)
}

func TestReduceByKeyEvenOdd(t *testing.T) {
	seq := iterseq.NewRange(1, 1000, 1)
	pa := Parallelize[int](seq, 4)
	pairs := MapToPair(pa, func(v int) shuffle.Pair[int, int] {
		return shuffle.Pair[int, int]{Key: v % 2, Val: 1}
	})

	shuffled, err := ReduceByKey(context.Background(), pairs, intHash, 2, func(a, b int) int { return a + b })
	require.NoError(t, err)

	exec := newLocalExecutor()
	collected, err := Collect[shuffle.Pair[int, int]](context.Background(), exec, shuffled)
	require.NoError(t, err)

	counts := map[int]int{}
	for _, p := range collected {
		counts[p.Key] = p.Val
	}
	require.Equal(t, 500, counts[0])
	require.Equal(t, 500, counts[1])
}

func TestDistinct(t *testing.T) {
	data := []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 5}
	pa := Parallelize[int](iterseq.NewVector(data), 3)

	exec := newLocalExecutor()
	distinctRDD, err := Distinct[int](context.Background(), exec, pa, intHash, 3)
	require.NoError(t, err)

	collected, err := Collect[int](context.Background(), exec, distinctRDD)
	require.NoError(t, err)
	sort.Ints(collected)
	require.Equal(t, []int{1, 2, 3, 4, 5}, collected)
}

func TestUnionPartitionCountIsSum(t *testing.T) {
	a := Parallelize[int](iterseq.NewRange(1, 10, 1), 3)
	b := Parallelize[int](iterseq.NewRange(11, 15, 1), 2)
	u := Union[int](a, b)
	require.Len(t, u.Partitions(), 5)

	exec := newLocalExecutor()
	collected, err := Collect[int](context.Background(), exec, u)
	require.NoError(t, err)
	require.Len(t, collected, 15)
}

func TestJoinSmallPairRDDs(t *testing.T) {
	left := MapToPair(Parallelize[int](iterseq.NewVector([]int{1, 2}), 1), func(v int) shuffle.Pair[string, int] {
		names := map[int]string{1: "a", 2: "b"}
		return shuffle.Pair[string, int]{Key: names[v], Val: v}
	})
	right := MapToPair(Parallelize[int](iterseq.NewVector([]int{1, 2, 3}), 1), func(v int) shuffle.Pair[string, int] {
		names := map[int]string{1: "a", 2: "a", 3: "c"}
		return shuffle.Pair[string, int]{Key: names[v], Val: v * 10}
	})

	joined, err := Join[string, int, int](context.Background(), left, right, stringHash, 2)
	require.NoError(t, err)

	exec := newLocalExecutor()
	collected, err := Collect[shuffle.Pair[string, [2]any]](context.Background(), exec, joined)
	require.NoError(t, err)
	require.Len(t, collected, 2) // "a" joins with both right entries tagged "a"
	for _, p := range collected {
		require.Equal(t, "a", p.Key)
	}
}
