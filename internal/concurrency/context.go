// File: internal/concurrency/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SharedContext is the state every worker of a pool shares.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/api"
	"github.com/momentics/corepool/task"
)

// SharedContext holds the plan, the pending queue and the completed list.
//
// Two lock domains: pmu guards the pending queue, every stream's terminate
// flag and is the condition's lock; cmu guards the completed list. Submitters
// and workers never contend with readers of results.
type SharedContext struct {
	plan    affinity.StreamPlan
	verbose bool
	metrics api.Metrics

	pmu     sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue

	_ cpu.CacheLinePad

	cmu       sync.Mutex
	completed []*task.Task
}

// NewSharedContext creates the context for plan. A nil metrics disables telemetry.
func NewSharedContext(plan affinity.StreamPlan, verbose bool, metrics api.Metrics) *SharedContext {
	if metrics == nil {
		metrics = api.NilMetrics{}
	}
	c := &SharedContext{
		plan:    plan,
		verbose: verbose,
		metrics: metrics,
		pending: queue.New(),
	}
	c.cond = sync.NewCond(&c.pmu)
	return c
}

// Plan returns the stream plan the context was built for.
func (c *SharedContext) Plan() affinity.StreamPlan { return c.plan }

// Verbose reports whether lifecycle events are logged.
func (c *SharedContext) Verbose() bool { return c.verbose }

// Metrics returns the telemetry sink.
func (c *SharedContext) Metrics() api.Metrics { return c.metrics }

// Enqueue appends t to the pending queue and wakes one waiting worker.
func (c *SharedContext) Enqueue(t *task.Task) {
	c.pmu.Lock()
	c.pending.Add(t)
	depth := c.pending.Length()
	c.pmu.Unlock()
	c.cond.Signal()

	c.metrics.RecordSubmitted()
	c.metrics.RecordQueueDepth(depth)
}

// PendingLen returns the number of queued tasks.
func (c *SharedContext) PendingLen() int {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return c.pending.Length()
}

// CompletedLen returns the number of completed tasks held.
func (c *SharedContext) CompletedLen() int {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return len(c.completed)
}

// Completed returns a copy of the completed list.
func (c *SharedContext) Completed() []*task.Task {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	out := make([]*task.Task, len(c.completed))
	copy(out, c.completed)
	return out
}

// Clear drops every pending and completed task, each under its own lock.
// Dropped pending tasks stay Pending forever.
func (c *SharedContext) Clear() {
	c.pmu.Lock()
	c.pending = queue.New()
	c.pmu.Unlock()
	c.metrics.RecordQueueDepth(0)

	c.cmu.Lock()
	c.completed = nil
	c.cmu.Unlock()
}

// next blocks until s is told to terminate or a task is queued.
// It returns false when the worker must exit.
func (c *SharedContext) next(s *Stream) (*task.Task, bool) {
	c.pmu.Lock()
	for !s.terminate && c.pending.Length() == 0 {
		c.cond.Wait()
	}
	if s.terminate {
		// hand a wake-up meant for work to a worker that is staying
		if c.pending.Length() > 0 {
			c.cond.Signal()
		}
		c.pmu.Unlock()
		return nil, false
	}
	t := c.pending.Remove().(*task.Task)
	depth := c.pending.Length()
	c.pmu.Unlock()

	c.metrics.RecordQueueDepth(depth)
	return t, true
}

// complete appends t to the completed list.
func (c *SharedContext) complete(t *task.Task) {
	c.cmu.Lock()
	c.completed = append(c.completed, t)
	c.cmu.Unlock()
}
