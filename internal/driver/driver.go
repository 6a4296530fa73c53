package driver

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/messaging"
	"github.com/dreamware/sunway/internal/scheduler"
	"github.com/dreamware/sunway/internal/telemetry"
)

// Driver is the per-process entry point an action's task batch is
// submitted through. Every host in the cluster runs its own Driver,
// built from the same host list, so placement decisions agree across
// processes without any extra coordination.
type Driver struct {
	hosts      []hostconfig.Host
	selfIndex  int
	master     string
	listenPort int
	messenger  *messaging.Messenger
	hooks      *telemetry.Hooks
	mode       scheduler.Mode
	jobCounter int64
}

// New builds a Driver bound to cfg's host list; it does not open its
// port until Listen is called. selfIndex identifies this process's entry in cfg.Hosts. hooks
// may be nil, in which case telemetry is a no-op.
func New(cfg *hostconfig.Config, selfIndex int, hooks *telemetry.Hooks) (*Driver, error) {
	if selfIndex < 0 || selfIndex >= len(cfg.Hosts) {
		return nil, fmt.Errorf("driver: self index %d out of range for %d hosts", selfIndex, len(cfg.Hosts))
	}
	return &Driver{
		hosts:      cfg.Hosts,
		selfIndex:  selfIndex,
		master:     cfg.Master,
		listenPort: cfg.ListenPort,
		messenger:  messaging.New(cfg.ListenPort, hooks.Log()),
		hooks:      hooks,
		mode:       scheduler.ModePooled,
	}, nil
}

// Listen starts the messaging listener. It returns an error if the port
// is already bound by another process.
func (d *Driver) Listen(stop <-chan struct{}) error {
	if d.messenger.Listen(stop) != messaging.ListenSuccess {
		return fmt.Errorf("driver: failed to listen on port %d", d.listenPort)
	}
	return nil
}

// SelfAddress returns this process's own host address.
func (d *Driver) SelfAddress() string {
	return d.hosts[d.selfIndex].Address
}

// Shutdown closes the listening socket and waits for every in-flight
// connection to finish serving, up to ctx's deadline.
func (d *Driver) Shutdown(ctx context.Context) error {
	return d.messenger.Shutdown(ctx)
}

// SetMode overrides the local task execution mode (default ModePooled).
func (d *Driver) SetMode(m scheduler.Mode) {
	d.mode = m
}

// NextJobID allocates a fresh monotonic job id.
func (d *Driver) NextJobID() int64 {
	return atomic.AddInt64(&d.jobCounter, 1)
}

func (d *Driver) Hosts() []hostconfig.Host        { return d.hosts }
func (d *Driver) SelfIndex() int                  { return d.selfIndex }
func (d *Driver) Master() string                  { return d.master }
func (d *Driver) Messenger() *messaging.Messenger { return d.messenger }
func (d *Driver) Hooks() *telemetry.Hooks         { return d.hooks }
func (d *Driver) Mode() scheduler.Mode            { return d.mode }
