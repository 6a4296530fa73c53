package driver

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/messaging"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestNewRejectsOutOfRangeSelfIndex(t *testing.T) {
	cfg := &hostconfig.Config{Hosts: []hostconfig.Host{{Address: "h0"}}}
	_, err := New(cfg, 5, nil)
	require.Error(t, err)
}

func TestNextJobIDIsMonotonic(t *testing.T) {
	cfg := &hostconfig.Config{
		Hosts:      []hostconfig.Host{{Address: "local", Threads: 1}},
		Master:     "local",
		ListenPort: freePort(t),
	}
	d, err := New(cfg, 0, nil)
	require.NoError(t, err)
	first := d.NextJobID()
	second := d.NextJobID()
	require.Equal(t, first+1, second)
}

func TestListenFailsOnPortInUse(t *testing.T) {
	port := freePort(t)
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	require.NoError(t, err)
	defer ln.Close()

	cfg := &hostconfig.Config{
		Hosts:      []hostconfig.Host{{Address: "local", Threads: 1}},
		Master:     "local",
		ListenPort: port,
	}
	d, err := New(cfg, 0, nil)
	require.NoError(t, err)
	stop := make(chan struct{})
	defer close(stop)
	require.Error(t, d.Listen(stop))
}

func TestShutdownClosesListenerWithinDeadline(t *testing.T) {
	cfg := &hostconfig.Config{
		Hosts:      []hostconfig.Host{{Address: "local", Threads: 1}},
		Master:     "local",
		ListenPort: freePort(t),
	}
	d, err := New(cfg, 0, nil)
	require.NoError(t, err)
	stop := make(chan struct{})
	defer close(stop)
	require.NoError(t, d.Listen(stop))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	// A second listen attempt on the same port should now succeed since
	// the first listener was actually released.
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.ListenPort)))
	require.NoError(t, err)
	ln.Close()
}

func TestShutdownWaitsForInFlightConnection(t *testing.T) {
	cfg := &hostconfig.Config{
		Hosts:      []hostconfig.Host{{Address: "local", Threads: 1}},
		Master:     "local",
		ListenPort: freePort(t),
	}
	d, err := New(cfg, 0, nil)
	require.NoError(t, err)

	handlerStarted := make(chan struct{})
	releaseHandler := make(chan struct{})
	d.Messenger().Register(1, messaging.HandlerFunc(func(localPort int, fromHost string, msgType messaging.MessageType, payload string) (string, error) {
		close(handlerStarted)
		<-releaseHandler
		return "", nil
	}))

	stop := make(chan struct{})
	defer close(stop)
	require.NoError(t, d.Listen(stop))

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.ListenPort))
	d.Messenger().SendMessage(addr, 1, messaging.ATaskResult, "slow")
	<-handlerStarted

	shutdownDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		shutdownDone <- d.Shutdown(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-shutdownDone:
		t.Fatal("shutdown returned before the in-flight handler finished")
	default:
	}

	close(releaseHandler)
	require.NoError(t, <-shutdownDone)
}
