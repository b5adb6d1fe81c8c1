// File: affinity/plan.go
// Author: momentics <momentics@gmail.com>
//
// Thread and stream placement plans produced by the allocator.

package affinity

import (
	"fmt"
	"strings"

	"github.com/momentics/corepool/api"
)

// ThreadPlan is the set of cores one worker thread is pinned to.
type ThreadPlan = api.CoreSet

// StreamPlan groups thread plans into streams. StreamPlan[i] lists the
// threads of stream i in plan order.
type StreamPlan [][]ThreadPlan

// Streams returns the number of streams.
func (sp StreamPlan) Streams() int { return len(sp) }

// Threads returns the total number of threads across all streams.
func (sp StreamPlan) Threads() int {
	n := 0
	for _, s := range sp {
		n += len(s)
	}
	return n
}

// String renders one line per stream:
//
//	stream 0 affinity cores {[0,1],[2,3]}
func (sp StreamPlan) String() string {
	var b strings.Builder
	for i, threads := range sp {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "stream %d affinity cores {", i)
		for j, cores := range threads {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(cores.String())
		}
		b.WriteByte('}')
	}
	return b.String()
}
