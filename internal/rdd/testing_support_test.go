package rdd

import (
	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/messaging"
	"github.com/dreamware/sunway/internal/scheduler"
	"github.com/dreamware/sunway/internal/telemetry"
)

// localExecutor is a single-host, in-process Executor used by tests: it
// runs every task locally and never touches the network.
type localExecutor struct {
	jobID int64
	hosts []hostconfig.Host
}

func newLocalExecutor() *localExecutor {
	return &localExecutor{hosts: []hostconfig.Host{{Address: "local", Threads: 4}}}
}

func (e *localExecutor) NextJobID() int64 {
	e.jobID++
	return e.jobID
}

func (e *localExecutor) Hosts() []hostconfig.Host        { return e.hosts }
func (e *localExecutor) SelfIndex() int                  { return 0 }
func (e *localExecutor) Master() string                  { return "local" }
func (e *localExecutor) Messenger() *messaging.Messenger { return nil }
func (e *localExecutor) Hooks() *telemetry.Hooks         { return nil }
func (e *localExecutor) Mode() scheduler.Mode            { return scheduler.ModePooled }
