package integration

import (
	"context"
	"net"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/sunway/internal/driver"
	"github.com/dreamware/sunway/internal/hostconfig"
	"github.com/dreamware/sunway/internal/iterseq"
	"github.com/dreamware/sunway/internal/rdd"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// TestTwoHostCollectEndToEnd builds two driver processes bound to real
// TCP ports on localhost, submits the same RDD action on both
// simultaneously, and checks that every host ends up with the complete
// result set (compared after sorting) once TASK_RESULT_LIST has been
// broadcast.
func TestTwoHostCollectEndToEnd(t *testing.T) {
	port0, port1 := freePort(t), freePort(t)
	addr0 := net.JoinHostPort("127.0.0.1", strconv.Itoa(port0))
	addr1 := net.JoinHostPort("127.0.0.1", strconv.Itoa(port1))

	hosts := []hostconfig.Host{
		{Address: addr0, Threads: 2, ListenPort: port0},
		{Address: addr1, Threads: 2, ListenPort: port1},
	}

	cfg0 := &hostconfig.Config{Hosts: hosts, Master: addr0, ListenPort: port0}
	cfg1 := &hostconfig.Config{Hosts: hosts, Master: addr0, ListenPort: port1}

	d0, err := driver.New(cfg0, 0, nil)
	require.NoError(t, err)
	d1, err := driver.New(cfg1, 1, nil)
	require.NoError(t, err)

	stop0, stop1 := make(chan struct{}), make(chan struct{})
	defer close(stop0)
	defer close(stop1)
	require.NoError(t, d0.Listen(stop0))
	require.NoError(t, d1.Listen(stop1))
	time.Sleep(50 * time.Millisecond)

	seq := iterseq.NewRange(1, 20, 1)
	source := rdd.Parallelize[int](seq, 4)
	doubled := rdd.Map[int](source, func(v int) int { return v * 2 })

	// generous: finishTask jitters its send by up to 500ms per spec.md
	// §4.5, and 4 tasks (one per partition) share a 2-thread-per-host pool.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var got0, got1 []int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		got0, err = rdd.Collect[int](gctx, d0, doubled)
		return err
	})
	g.Go(func() error {
		var err error
		got1, err = rdd.Collect[int](gctx, d1, doubled)
		return err
	})
	require.NoError(t, g.Wait())

	sort.Ints(got0)
	sort.Ints(got1)
	want := make([]int, 20)
	for i := range want {
		want[i] = (i + 1) * 2
	}
	require.Equal(t, want, got0)
	require.Equal(t, want, got1)
}

