// Package scheduler implements task placement, bounded local execution,
// and master-side result aggregation for one job.
//
// # Overview
//
// Every host in the cluster runs an identical Scheduler built from the
// same host list and task batch, so placement is a pure, deterministic
// function of (tasks' preferred locations, hosts): no coordination is needed to
// agree on who runs what. Each host executes only the tasks assigned to
// itself, on a bounded goroutine pool sized to its own thread count, and
// reports each result to the master over the messaging substrate. The
// master deduplicates by task id and, once every result has arrived,
// broadcasts the full result list back to every other host.
package scheduler
