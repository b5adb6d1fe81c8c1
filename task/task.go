// Package task
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task is the shared handle for one unit of work dispatched by the pool. The
// submitter, the executing worker and the completed list all hold the same
// *Task; status and timing are written once by Run and read by anyone.

package task

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/corepool/api"
)

// Status is the lifecycle state of a task.
type Status int32

const (
	Pending Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Func adapts a plain function to api.Processor.
type Func func()

// Process calls f.
func (f Func) Process() { f() }

// Task wraps a Processor with status and timing.
type Task struct {
	id   uuid.UUID
	proc api.Processor

	status  atomic.Int32
	start   time.Time
	elapsed time.Duration
	err     error
}

// New returns a Pending task around p.
func New(p api.Processor) *Task {
	return &Task{id: uuid.New(), proc: p}
}

// NewFunc is New(Func(fn)).
func NewFunc(fn func()) *Task {
	return New(Func(fn))
}

// ID returns the random identifier assigned at creation.
func (t *Task) ID() uuid.UUID { return t.id }

// Processor returns the wrapped work item.
func (t *Task) Processor() api.Processor { return t.proc }

// Status returns the current lifecycle state.
func (t *Task) Status() Status { return Status(t.status.Load()) }

// Done reports whether Run has finished.
func (t *Task) Done() bool { return t.Status() == Completed }

// Elapsed returns the measured duration of Process. Valid once Done.
func (t *Task) Elapsed() time.Duration {
	if !t.Done() {
		return 0
	}
	return t.elapsed
}

// ElapsedMillis returns Elapsed in fractional milliseconds.
func (t *Task) ElapsedMillis() float64 {
	return float64(t.Elapsed()) / float64(time.Millisecond)
}

// StartedAt returns the time Run began. Valid once Done.
func (t *Task) StartedAt() time.Time {
	if !t.Done() {
		return time.Time{}
	}
	return t.start
}

// Err returns the recovered panic of Process, if any. Valid once Done.
func (t *Task) Err() error {
	if !t.Done() {
		return nil
	}
	return t.err
}

// Run executes Process on the calling goroutine and stamps timing.
// Run must be called at most once per task.
func (t *Task) Run() {
	t.start = time.Now()
	t.status.Store(int32(Running))
	defer func() {
		if r := recover(); r != nil {
			t.err = fmt.Errorf("task %s: panic: %v", t.id, r)
		}
		t.elapsed = time.Since(t.start)
		// elapsed and err are published by the status store
		t.status.Store(int32(Completed))
	}()
	t.proc.Process()
}

// Wait busy-polls until the task completes. A zero timeout waits forever;
// otherwise Wait gives up once timeout has elapsed and returns false.
func (t *Task) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		for !t.Done() {
			runtime.Gosched()
		}
		return true
	}
	start := time.Now()
	for !t.Done() {
		if time.Since(start) >= timeout {
			return t.Done()
		}
		runtime.Gosched()
	}
	return true
}
