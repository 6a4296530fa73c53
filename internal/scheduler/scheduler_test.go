package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/task"
)

func TestRunTasksSingleHostMaster(t *testing.T) {
	hosts := []hostconfig.Host{{Address: "local", Threads: 4}}
	s := New[int](1, hosts, 0, "local", nil, nil, ModePooled)

	var tasks []*task.Task[int]
	for i := 0; i < 5; i++ {
		i := i
		tasks = append(tasks, task.NewTask(i, 0, i, task.OpCustom, task.JSONCodec[int]{}, func(ctx context.Context) ([]int, error) {
			return []int{i * i}, nil
		}))
	}

	// generous: finishTask jitters its send by up to 500ms per spec.md §4.5.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	results, err := s.RunTasks(ctx, tasks)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		require.NotNil(t, r)
		require.Equal(t, i*i, r.Value[0])
	}
	require.Equal(t, StateComplete, s.State())
}

func TestRunTasksDetachedReturnsImmediately(t *testing.T) {
	hosts := []hostconfig.Host{{Address: "local", Threads: 4}}
	s := New[int](1, hosts, 0, "local", nil, nil, ModeDetached)

	started := make(chan struct{})
	tasks := []*task.Task[int]{
		task.NewTask(0, 0, 0, task.OpCustom, task.JSONCodec[int]{}, func(ctx context.Context) ([]int, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := s.RunTasks(ctx, tasks)
	require.NoError(t, err)
	require.Nil(t, results)
	require.Equal(t, StateDetached, s.State())

	<-started
}
