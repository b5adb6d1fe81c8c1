// File: internal/concurrency/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream owns the worker threads of one slice of the stream plan and drives
// their create/terminate/reset lifecycle.

package concurrency

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/api"
	"github.com/momentics/corepool/task"
)

// Stream is a lifecycle-managed group of pinned workers.
type Stream struct {
	id     int
	ctx    *SharedContext
	binder api.Binder

	mu      sync.Mutex // serializes lifecycle calls
	wg      sync.WaitGroup
	running int

	terminate bool // guarded by ctx.pmu
}

// NewStream binds stream id of ctx's plan. No threads are started.
func NewStream(ctx *SharedContext, id int, binder api.Binder) *Stream {
	if binder == nil {
		binder = affinity.System()
	}
	return &Stream{id: id, ctx: ctx, binder: binder}
}

// ID returns the stream index in the plan.
func (s *Stream) ID() int { return s.id }

// Threads returns the thread plans owned by the stream.
func (s *Stream) Threads() []affinity.ThreadPlan { return s.ctx.plan[s.id] }

// Running returns the number of live workers.
func (s *Stream) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CreateThreads starts one worker per thread plan. Each worker locks its OS
// thread and binds it before taking work. If any worker fails to bind, the
// ones already started are terminated and the first error is returned.
func (s *Stream) CreateThreads() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running > 0 {
		return api.NewError(api.ErrCodeAlreadyExists, "stream threads already running").
			WithContext("stream", s.id).
			WithContext("threads", s.running)
	}

	s.ctx.pmu.Lock()
	s.terminate = false
	s.ctx.pmu.Unlock()

	plans := s.Threads()
	var g errgroup.Group
	for i, cores := range plans {
		started := make(chan error, 1)
		s.wg.Add(1)
		go s.work(i, cores, started)
		g.Go(func() error { return <-started })
	}
	s.running = len(plans)

	if err := g.Wait(); err != nil {
		s.terminateLocked()
		return fmt.Errorf("stream %d: %w", s.id, err)
	}
	s.ctx.metrics.RecordWorkers(s.id, s.running)
	if s.ctx.verbose {
		klog.V(2).Infof("stream %d: created %d threads", s.id, len(plans))
	}
	return nil
}

// TerminateThreads tells every worker to exit and joins them. Workers finish
// the task they are running first.
func (s *Stream) TerminateThreads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminateLocked()
}

// ResetThreads replaces the workers with fresh threads pinned to the same plan.
func (s *Stream) ResetThreads() error {
	s.mu.Lock()
	s.terminateLocked()
	s.mu.Unlock()
	return s.CreateThreads()
}

func (s *Stream) terminateLocked() {
	s.ctx.pmu.Lock()
	s.terminate = true
	s.ctx.pmu.Unlock()
	s.ctx.cond.Broadcast()

	s.wg.Wait()
	if s.ctx.verbose && s.running > 0 {
		klog.V(2).Infof("stream %d: joined %d threads", s.id, s.running)
	}
	s.running = 0
	s.ctx.metrics.RecordWorkers(s.id, 0)
}

// work is the dispatch loop of one worker.
func (s *Stream) work(idx int, cores affinity.ThreadPlan, started chan<- error) {
	defer s.wg.Done()

	// Never unlocked: the goroutine exits locked so the runtime discards the
	// pinned thread instead of reusing it.
	runtime.LockOSThread()
	if err := s.binder.BindCurrentThread(cores); err != nil {
		started <- fmt.Errorf("thread %d: bind %s: %w", idx, cores, err)
		return
	}
	started <- nil

	for {
		t, ok := s.ctx.next(s)
		if !ok {
			if s.ctx.verbose {
				klog.V(2).Infof("stream %d: terminated worker %d", s.id, idx)
			}
			return
		}
		s.execute(t)
		s.ctx.complete(t)
	}
}

func (s *Stream) execute(t *task.Task) {
	t.Run()
	if err := t.Err(); err != nil {
		klog.Errorf("stream %d: %v", s.id, err)
		s.ctx.metrics.RecordTaskPanic(s.id)
	}
	s.ctx.metrics.RecordTaskDuration(s.id, t.Elapsed())
}
