// File: cmd/corebench/bench.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/momentics/corepool/pool"
	"github.com/momentics/corepool/task"
)

// spinTask burns CPU for block instead of sleeping, so it occupies its core.
type spinTask struct {
	block time.Duration
}

func (s spinTask) Process() {
	start := time.Now()
	for time.Since(start) <= s.block {
	}
}

type bench struct {
	pool  *pool.ThreadPool
	loop  int
	block time.Duration
	out   io.Writer
}

func (b bench) runAll() error {
	if err := b.syncScenario("Sync API(direct)", true); err != nil {
		return err
	}
	if err := b.syncScenario("Sync API(async)", false); err != nil {
		return err
	}
	return b.asyncScenario()
}

func (b bench) syncScenario(name string, direct bool) error {
	if err := b.pool.ResetAll(); err != nil {
		return err
	}
	start := time.Now()
	for i := 0; i < b.loop; i++ {
		if _, err := b.pool.Sync(task.New(spinTask{block: b.block}), direct); err != nil {
			return err
		}
	}
	b.report(name, b.loop, time.Since(start))
	return nil
}

func (b bench) asyncScenario() error {
	if err := b.pool.ResetAll(); err != nil {
		return err
	}
	n := b.loop * max(b.pool.Plan().Threads(), 1)
	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := b.pool.SubmitAsync(task.New(spinTask{block: b.block})); err != nil {
			return err
		}
	}
	b.pool.WaitAll()
	b.report("Async API", n, time.Since(start))
	return nil
}

func (b bench) report(name string, n int, whole time.Duration) {
	secs := whole.Seconds()
	fmt.Fprintf(b.out, "%s Summary, Whole Time: %.3fs, Avg Latency: %.3fms, Avg QPS: %.1f\n",
		name, secs, secs/float64(n)*1000, float64(n)/secs)
}
