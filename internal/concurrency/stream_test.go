package concurrency

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/api"
	"github.com/momentics/corepool/task"
)

type recordingBinder struct {
	mu    sync.Mutex
	bound []api.CoreSet
	fail  func(api.CoreSet) bool
}

func (b *recordingBinder) BindCurrentThread(cores api.CoreSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil && b.fail(cores) {
		return errors.New("bind refused")
	}
	b.bound = append(b.bound, cores)
	return nil
}

func (b *recordingBinder) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bound)
}

func onePerThread(threads ...int) affinity.StreamPlan {
	sp := make(affinity.StreamPlan, len(threads))
	core := 0
	for i, n := range threads {
		for j := 0; j < n; j++ {
			sp[i] = append(sp[i], affinity.ThreadPlan{core})
			core++
		}
	}
	return sp
}

func waitCompleted(t *testing.T, ctx *SharedContext, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for ctx.CompletedLen() < n {
		if time.Now().After(deadline) {
			t.Fatalf("completed %d of %d tasks before deadline", ctx.CompletedLen(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStream_CreateBindsEveryThread(t *testing.T) {
	ctx := NewSharedContext(onePerThread(3), false, nil)
	b := &recordingBinder{}
	s := NewStream(ctx, 0, b)

	if err := s.CreateThreads(); err != nil {
		t.Fatalf("CreateThreads: %v", err)
	}
	defer s.TerminateThreads()

	if s.Running() != 3 {
		t.Errorf("running = %d, want 3", s.Running())
	}
	if b.calls() != 3 {
		t.Errorf("bind calls = %d, want 3", b.calls())
	}
	if err := s.CreateThreads(); !errors.Is(err, api.ErrAlreadyExists) {
		t.Errorf("second CreateThreads err = %v, want ErrAlreadyExists", err)
	}
}

func TestStream_BindFailureUnwinds(t *testing.T) {
	ctx := NewSharedContext(onePerThread(4), false, nil)
	b := &recordingBinder{fail: func(c api.CoreSet) bool { return c[0] == 2 }}
	s := NewStream(ctx, 0, b)

	if err := s.CreateThreads(); err == nil {
		t.Fatal("CreateThreads should fail when a worker cannot bind")
	}
	if s.Running() != 0 {
		t.Errorf("running after failed create = %d, want 0", s.Running())
	}

	// the surviving workers were joined, so queued work is not picked up
	tk := task.NewFunc(func() {})
	ctx.Enqueue(tk)
	if tk.Wait(20 * time.Millisecond) {
		t.Error("no worker should be left running after unwind")
	}
}

func TestStream_DispatchFIFOSingleWorker(t *testing.T) {
	ctx := NewSharedContext(onePerThread(1), false, nil)
	s := NewStream(ctx, 0, &recordingBinder{})

	const n = 50
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = task.NewFunc(func() {})
		ctx.Enqueue(tasks[i])
	}
	if err := s.CreateThreads(); err != nil {
		t.Fatal(err)
	}
	defer s.TerminateThreads()

	waitCompleted(t, ctx, n)
	for i, got := range ctx.Completed() {
		if got != tasks[i] {
			t.Fatalf("completed[%d] out of submission order", i)
		}
	}
}

func TestStream_ExactlyOnceAcrossStreams(t *testing.T) {
	ctx := NewSharedContext(onePerThread(3, 2), false, nil)
	b := &recordingBinder{}
	streams := []*Stream{NewStream(ctx, 0, b), NewStream(ctx, 1, b)}
	for _, s := range streams {
		if err := s.CreateThreads(); err != nil {
			t.Fatal(err)
		}
		defer s.TerminateThreads()
	}

	const n = 500
	var runs atomic.Int64
	for i := 0; i < n; i++ {
		ctx.Enqueue(task.NewFunc(func() { runs.Add(1) }))
	}
	waitCompleted(t, ctx, n)

	seen := make(map[*task.Task]bool, n)
	for _, tk := range ctx.Completed() {
		if seen[tk] {
			t.Fatalf("task %s completed twice", tk.ID())
		}
		seen[tk] = true
		if !tk.Done() {
			t.Errorf("task %s in completed list with status %v", tk.ID(), tk.Status())
		}
	}
	if runs.Load() != n {
		t.Errorf("runs = %d, want %d", runs.Load(), n)
	}
}

func TestStream_TerminateFinishesRunningTask(t *testing.T) {
	ctx := NewSharedContext(onePerThread(1), false, nil)
	s := NewStream(ctx, 0, &recordingBinder{})
	if err := s.CreateThreads(); err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	tk := task.NewFunc(func() {
		close(entered)
		time.Sleep(10 * time.Millisecond)
	})
	ctx.Enqueue(tk)
	<-entered

	s.TerminateThreads()
	if !tk.Done() {
		t.Error("terminate must not abort the running task")
	}
	if ctx.CompletedLen() != 1 {
		t.Errorf("completed = %d, want 1", ctx.CompletedLen())
	}
}

func TestStream_TerminateLeavesOtherStreamsRunning(t *testing.T) {
	ctx := NewSharedContext(onePerThread(1, 1), false, nil)
	a := NewStream(ctx, 0, &recordingBinder{})
	b := NewStream(ctx, 1, &recordingBinder{})
	for _, s := range []*Stream{a, b} {
		if err := s.CreateThreads(); err != nil {
			t.Fatal(err)
		}
	}
	defer b.TerminateThreads()

	a.TerminateThreads()
	tk := task.NewFunc(func() {})
	ctx.Enqueue(tk)
	if !tk.Wait(2 * time.Second) {
		t.Fatal("remaining stream did not pick up work")
	}
}

func TestStream_ResetThreads(t *testing.T) {
	ctx := NewSharedContext(onePerThread(2), false, nil)
	b := &recordingBinder{}
	s := NewStream(ctx, 0, b)
	if err := s.CreateThreads(); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetThreads(); err != nil {
		t.Fatalf("ResetThreads: %v", err)
	}
	defer s.TerminateThreads()

	if b.calls() != 4 {
		t.Errorf("bind calls = %d, want 4 (two generations)", b.calls())
	}
	tk := task.NewFunc(func() {})
	ctx.Enqueue(tk)
	if !tk.Wait(2 * time.Second) {
		t.Fatal("reset stream does not run work")
	}
}

func TestSharedContext_Clear(t *testing.T) {
	ctx := NewSharedContext(onePerThread(1), false, nil)
	ctx.Enqueue(task.NewFunc(func() {}))
	done := task.NewFunc(func() {})
	done.Run()
	ctx.complete(done)

	ctx.Clear()
	if ctx.PendingLen() != 0 || ctx.CompletedLen() != 0 {
		t.Errorf("after Clear pending=%d completed=%d", ctx.PendingLen(), ctx.CompletedLen())
	}
}
