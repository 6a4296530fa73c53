package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/messaging"
	"github.com/dreamware/sunway/internal/task"
	"github.com/dreamware/sunway/internal/telemetry"
)

// Mode selects how a host executes the tasks placed on it.
type Mode int

const (
	// ModePooled runs local tasks on a goroutine pool bounded by the
	// host's own thread count. This is the default and the mode used
	// everywhere in this repository.
	ModePooled Mode = iota
	// ModeDetached launches each local task in its own ungoverned
	// goroutine, the closest Go analogue to "fork and don't wait".
	ModeDetached
)

// State names a point in the scheduler's lifecycle.
type State int32

const (
	StateUnarmed State = iota
	StateArmed
	StatePlaced
	StateCollecting
	StateComplete
	StateDetached
)

// ErrFutureJob signals that a received task result belongs to a job id
// greater than the scheduler's own: the caller should requeue the
// message once that job registers its own scheduler. It satisfies
// messaging's FutureJob interface (by having a FutureJobID method) so
// the messenger's listener can detect it without importing scheduler.
type ErrFutureJob struct {
	JobID int64
}

func (e ErrFutureJob) Error() string {
	return fmt.Sprintf("scheduler: result for future job %d", e.JobID)
}

// FutureJobID implements messaging.FutureJob.
func (e ErrFutureJob) FutureJobID() int64 { return e.JobID }

// Scheduler coordinates placement, local execution, and result
// aggregation for a single job's task batch. One Scheduler instance
// exists per job per host process.
type Scheduler[T any] struct {
	jobID      int64
	hosts      []hostconfig.Host
	selfIndex  int
	masterAddr string
	isMaster   bool
	messenger  *messaging.Messenger
	hooks      *telemetry.Hooks
	mode       Mode

	mu            sync.Mutex
	tasks         []*task.Task[T]
	placement     []int
	results       []*task.TaskResult[T]
	received      []bool
	receivedCount int
	done          chan struct{}
	doneOnce      sync.Once
	state         State
}

// New builds a Scheduler for jobID. master is either "local" or an
// address from hosts; isMaster is true when the local host's address
// equals master or master == "local".
func New[T any](jobID int64, hosts []hostconfig.Host, selfIndex int, master string, messenger *messaging.Messenger, hooks *telemetry.Hooks, mode Mode) *Scheduler[T] {
	isMaster := master == "local" || (selfIndex >= 0 && selfIndex < len(hosts) && hosts[selfIndex].Address == master)
	return &Scheduler[T]{
		jobID:      jobID,
		hosts:      hosts,
		selfIndex:  selfIndex,
		masterAddr: master,
		isMaster:   isMaster,
		messenger:  messenger,
		hooks:      hooks,
		mode:       mode,
		done:       make(chan struct{}),
	}
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnMessage implements messaging.Handler, handling A_TASK_RESULT and
// TASK_RESULT_LIST traffic for this scheduler's job. A non-nil
// ErrFutureJob tells the messenger to buffer the frame and redeliver it
// once the job it actually belongs to registers its own scheduler.
func (s *Scheduler[T]) OnMessage(localPort int, fromHost string, msgType messaging.MessageType, payload string) (string, error) {
	switch msgType {
	case messaging.ATaskResult:
		return "", s.handleTaskResult(payload)
	case messaging.TaskResultList:
		return "", s.handleTaskResultList(payload)
	case messaging.ResultReneed, messaging.ResultReneedTotal:
		// reserved, no-op
	}
	return "", nil
}

func (s *Scheduler[T]) codec() task.Codec[T] {
	if len(s.tasks) > 0 && s.tasks[0].Codec != nil {
		return s.tasks[0].Codec
	}
	return task.JSONCodec[T]{}
}

func (s *Scheduler[T]) handleTaskResult(payload string) error {
	codec := s.codec()
	jobID, taskID, value, err := task.DecodeTaskResult(payload, codec)
	if err != nil {
		s.hooks.Log().Warn("scheduler: malformed task result", zap.Error(err))
		return nil
	}
	if jobID > s.jobID {
		return ErrFutureJob{JobID: jobID}
	}
	if jobID < s.jobID {
		return nil
	}

	s.mu.Lock()
	if taskID < 0 || taskID >= len(s.received) || s.received[taskID] {
		s.mu.Unlock()
		return nil
	}
	s.received[taskID] = true
	s.results[taskID] = &task.TaskResult[T]{TaskID: taskID, Value: []T{value}}
	s.receivedCount++
	complete := s.receivedCount == len(s.tasks)
	var entries []string
	if complete && s.isMaster {
		entries = make([]string, len(s.results))
		for i, r := range s.results {
			entries[i], _ = task.EncodeTaskResult(s.jobID, r.TaskID, r.Value[0], codec)
		}
	}
	s.mu.Unlock()

	if complete {
		s.markComplete()
		if s.isMaster {
			s.broadcastResultList(entries)
		}
	}
	return nil
}

func (s *Scheduler[T]) handleTaskResultList(payload string) error {
	entries := task.DecodeTaskResultList(payload)
	codec := s.codec()

	if len(entries) > 0 {
		if jobID, _, _, err := task.DecodeTaskResult(entries[0], codec); err == nil && jobID > s.jobID {
			return ErrFutureJob{JobID: jobID}
		}
	}

	s.mu.Lock()
	if len(entries) != len(s.tasks) {
		s.mu.Unlock()
		s.hooks.Log().Warn("scheduler: task result list count mismatch",
			zap.Int("got", len(entries)), zap.Int("want", len(s.tasks)))
		return nil
	}
	for _, entry := range entries {
		_, taskID, value, err := task.DecodeTaskResult(entry, codec)
		if err != nil {
			continue
		}
		if taskID < 0 || taskID >= len(s.results) {
			continue
		}
		s.results[taskID] = &task.TaskResult[T]{TaskID: taskID, Value: []T{value}}
		s.received[taskID] = true
	}
	s.mu.Unlock()
	s.markComplete()
	return nil
}

func (s *Scheduler[T]) markComplete() {
	s.mu.Lock()
	s.state = StateComplete
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Scheduler[T]) broadcastResultList(entries []string) {
	payload := task.EncodeTaskResultList(entries)
	for i, h := range s.hosts {
		if i == s.selfIndex {
			continue
		}
		s.messenger.SendMessage(h.Address, s.jobID, messaging.TaskResultList, payload)
	}
}

// RunTasks places tasks across the cluster, executes this host's share
// locally, reports results, and blocks until every result is known.
func (s *Scheduler[T]) RunTasks(ctx context.Context, tasks []*task.Task[T]) ([]*task.TaskResult[T], error) {
	s.arm(tasks)

	if len(tasks) == 0 {
		s.markComplete()
		return nil, nil
	}

	preferred := make([][]string, len(tasks))
	for i, t := range tasks {
		preferred[i] = t.PreferredLocations()
	}
	placement := NewPlacer(s.hosts).Place(preferred)

	s.mu.Lock()
	s.placement = placement
	s.state = StatePlaced
	s.mu.Unlock()

	if err := s.runLocalShare(ctx); err != nil {
		return nil, err
	}

	if s.mode == ModeDetached {
		// Fire-and-forget: don't wait on this job's own results. Any
		// results that do arrive are still aggregated in the
		// background via OnMessage, but RunTasks itself walks away.
		s.mu.Lock()
		s.state = StateDetached
		s.mu.Unlock()
		return nil, nil
	}

	s.mu.Lock()
	if s.state != StateComplete {
		s.state = StateCollecting
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, nil
}

func (s *Scheduler[T]) arm(tasks []*task.Task[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.results = make([]*task.TaskResult[T], len(tasks))
	s.received = make([]bool, len(tasks))
	s.receivedCount = 0
	s.done = make(chan struct{})
	s.doneOnce = sync.Once{}
	s.state = StateArmed
}

func (s *Scheduler[T]) runLocalShare(ctx context.Context) error {
	s.mu.Lock()
	mine := make([]*task.Task[T], 0)
	for i, t := range s.tasks {
		if s.placement[i] == s.selfIndex {
			mine = append(mine, t)
		}
	}
	threads := 1
	if s.selfIndex >= 0 && s.selfIndex < len(s.hosts) && s.hosts[s.selfIndex].Threads > 0 {
		threads = s.hosts[s.selfIndex].Threads
	}
	s.mu.Unlock()

	for range mine {
		s.hooks.IncTasksPlaced()
	}
	s.hooks.SetTasksInFlight(len(mine))
	defer s.hooks.SetTasksInFlight(0)

	switch s.mode {
	case ModeDetached:
		for _, t := range mine {
			go s.runOne(ctx, t)
		}
		return nil
	default:
		sem := semaphore.NewWeighted(int64(threads))
		g, gctx := errgroup.WithContext(ctx)
		for _, t := range mine {
			t := t
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			g.Go(func() error {
				defer sem.Release(1)
				s.runOne(gctx, t)
				return nil
			})
		}
		return g.Wait()
	}
}

func (s *Scheduler[T]) runOne(ctx context.Context, t *task.Task[T]) {
	spanCtx, end := s.hooks.StartSpan(ctx, "scheduler.task")
	defer end()

	values, err := t.Run(spanCtx)
	if err != nil {
		s.hooks.Log().Warn("scheduler: task failed", zap.Int("task_id", t.ID), zap.Error(err))
		return
	}
	s.finishTask(t, values)
}

func (s *Scheduler[T]) finishTask(t *task.Task[T], values []T) {
	var value T
	if len(values) > 0 {
		value = values[0]
	}

	codec := t.Codec
	if codec == nil {
		codec = task.JSONCodec[T]{}
	}

	// Damp synchronized flooding: every host in a round tends to finish
	// its share at roughly the same time, so jitter the send instead of
	// having them all hit the master in the same instant.
	time.Sleep(time.Duration(rand.N(int64(500 * time.Millisecond))))

	if s.isMaster {
		encoded, err := task.EncodeTaskResult(s.jobID, t.ID, value, codec)
		if err != nil {
			s.hooks.Log().Warn("scheduler: encode failed", zap.Error(err))
			return
		}
		if err := s.handleTaskResult(encoded); err != nil {
			s.hooks.Log().Warn("scheduler: local result rejected", zap.Error(err))
		}
		return
	}

	encoded, err := task.EncodeTaskResult(s.jobID, t.ID, value, codec)
	if err != nil {
		s.hooks.Log().Warn("scheduler: encode failed", zap.Error(err))
		return
	}
	s.messenger.SendMessage(s.masterAddr, s.jobID, messaging.ATaskResult, encoded)
}
