// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadPool façade: plan resolution, stream construction, submission and waits.

package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/api"
	"github.com/momentics/corepool/control"
	"github.com/momentics/corepool/internal/concurrency"
	"github.com/momentics/corepool/task"
)

// ThreadPool is a fixed set of pinned workers grouped into streams.
type ThreadPool struct {
	ctx     *concurrency.SharedContext
	streams []*concurrency.Stream

	mu     sync.Mutex // serializes CleanAll/ResetAll/Close
	closed atomic.Bool
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Pending   int
	Completed int
	Workers   []int // live workers per stream
}

// New resolves the plan and starts every stream. If any worker fails to
// start, the streams already running are torn down and the error returned.
func New(opts ...Option) (*ThreadPool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.topology == nil {
		o.topology = affinity.System()
	}
	if o.binder == nil {
		if b, ok := o.topology.(api.Binder); ok {
			o.binder = b
		} else {
			o.binder = affinity.System()
		}
	}

	plan, err := affinity.NewAllocator(o.topology).BuildPlan(o.cfg.Streams, o.cfg.Threads, o.cfg.UseAffinity)
	if err != nil {
		return nil, fmt.Errorf("pool: build plan: %w", err)
	}

	p := &ThreadPool{
		ctx: concurrency.NewSharedContext(plan, o.cfg.Verbose, o.metrics),
	}
	for i := range plan {
		p.streams = append(p.streams, concurrency.NewStream(p.ctx, i, o.binder))
	}
	if err := p.createAll(); err != nil {
		return nil, err
	}
	// workers reference the context and streams, never p, so an unreachable
	// pool is collectable and its threads are joined here
	runtime.SetFinalizer(p, (*ThreadPool).Close)
	return p, nil
}

// createAll starts every stream in plan order, unwinding on failure.
func (p *ThreadPool) createAll() error {
	if p.ctx.Verbose() {
		klog.Infof("pool: %d streams, %d threads\n%s", p.ctx.Plan().Streams(), p.ctx.Plan().Threads(), p.ctx.Plan())
	}
	for i, s := range p.streams {
		if err := s.CreateThreads(); err != nil {
			for _, started := range p.streams[:i] {
				started.TerminateThreads()
			}
			return fmt.Errorf("pool: start stream %d: %w", i, err)
		}
	}
	return nil
}

// Plan returns the stream plan the pool was built with.
func (p *ThreadPool) Plan() affinity.StreamPlan { return p.ctx.Plan() }

// SubmitAsync enqueues t and returns it without waiting. Tasks are taken in
// submission order by whichever worker is free; completion order is not
// guaranteed.
func (p *ThreadPool) SubmitAsync(t *task.Task) (*task.Task, error) {
	if p.closed.Load() {
		return t, api.ErrPoolClosed
	}
	p.ctx.Enqueue(t)
	return t, nil
}

// Wait busy-polls until t completes. A zero timeout waits forever; otherwise
// it returns false once timeout has elapsed.
func (p *ThreadPool) Wait(t *task.Task, timeout time.Duration) bool {
	return t.Wait(timeout)
}

// Sync runs t and waits for it. With direct, t runs on the calling goroutine
// without touching the queue or any worker.
func (p *ThreadPool) Sync(t *task.Task, direct bool) (bool, error) {
	if direct {
		t.Run()
		return true, nil
	}
	if _, err := p.SubmitAsync(t); err != nil {
		return false, err
	}
	return p.Wait(t, 0), nil
}

// WaitAll spins until the pending queue is empty and returns a snapshot of
// the completed list. Tasks already taken by a worker may still be running
// and missing from the snapshot.
func (p *ThreadPool) WaitAll() []*task.Task {
	for p.ctx.PendingLen() != 0 {
		runtime.Gosched()
	}
	return p.ctx.Completed()
}

// CleanAll joins every worker, then drops pending and completed tasks.
// Dropped pending tasks never complete.
func (p *ThreadPool) CleanAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanLocked()
}

func (p *ThreadPool) cleanLocked() {
	for _, s := range p.streams {
		s.TerminateThreads()
	}
	p.ctx.Clear()
}

// ResetAll is CleanAll followed by fresh workers on the same plan.
func (p *ThreadPool) ResetAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return api.ErrPoolClosed
	}
	p.cleanLocked()
	return p.createAll()
}

// Close stops every worker and releases queued tasks. Later submissions fail
// with api.ErrPoolClosed. Close is idempotent.
func (p *ThreadPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	runtime.SetFinalizer(p, nil)
	p.cleanLocked()
	return nil
}

// Stats returns queue lengths and live workers per stream.
func (p *ThreadPool) Stats() Stats {
	st := Stats{
		Pending:   p.ctx.PendingLen(),
		Completed: p.ctx.CompletedLen(),
		Workers:   make([]int, len(p.streams)),
	}
	for i, s := range p.streams {
		st.Workers[i] = s.Running()
	}
	return st
}

// RegisterProbes exposes pool state through dp.
func (p *ThreadPool) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("pool.pending", func() any { return p.ctx.PendingLen() })
	dp.RegisterProbe("pool.completed", func() any { return p.ctx.CompletedLen() })
	dp.RegisterProbe("pool.workers", func() any { return p.Stats().Workers })
	dp.RegisterProbe("pool.plan", func() any { return p.ctx.Plan().String() })
}
