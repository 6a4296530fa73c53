package scheduler

import "github.com/dreamware/sunway/internal/hostconfig"

// Placer is a pure value computing where each task in a batch should
// run. It never touches the network and is unit-tested directly against
// spec.md's placement-determinism property.
type Placer struct {
	hosts []hostconfig.Host
}

// NewPlacer builds a Placer over the given host list. Host order is
// significant: it is the tie-break order for the fallback pass.
func NewPlacer(hosts []hostconfig.Host) Placer {
	return Placer{hosts: hosts}
}

// Place assigns each task a host index. It processes tasks in rounds of
// size sum(threads); within a round, tasks whose PreferredLocations
// include a host with remaining capacity are placed there first, then
// remaining tasks are placed left-biased onto any host with nonzero
// threads and remaining round capacity.
func (p Placer) Place(preferredLocations [][]string) []int {
	n := len(preferredLocations)
	placement := make([]int, n)
	totalThreads := 0
	for _, h := range p.hosts {
		totalThreads += h.Threads
	}
	if totalThreads <= 0 {
		totalThreads = 1
	}

	addrIndex := make(map[string]int, len(p.hosts))
	for i, h := range p.hosts {
		addrIndex[h.Address] = i
	}

	for start := 0; start < n; start += totalThreads {
		end := start + totalThreads
		if end > n {
			end = n
		}
		remaining := make([]int, len(p.hosts))
		for i, h := range p.hosts {
			remaining[i] = h.Threads
		}
		unplaced := make([]int, 0, end-start)

		// pass 1: preferred-location placement
		for i := start; i < end; i++ {
			placed := false
			for _, loc := range preferredLocations[i] {
				if hi, ok := addrIndex[loc]; ok && remaining[hi] > 0 {
					placement[i] = hi
					remaining[hi]--
					placed = true
					break
				}
			}
			if !placed {
				unplaced = append(unplaced, i)
			}
		}

		// pass 2: left-biased fallback onto any host with capacity
		for _, i := range unplaced {
			for hi := range p.hosts {
				if remaining[hi] > 0 {
					placement[i] = hi
					remaining[hi]--
					break
				}
			}
		}
	}
	return placement
}
