// Package api
// Author: momentics <momentics@gmail.com>
//
// Metrics observer contract for pool telemetry.

package api

import "time"

// Metrics receives pool events. Implementations must be non-blocking;
// they are called from worker threads on the hot path.
type Metrics interface {
	// RecordSubmitted counts one enqueued task.
	RecordSubmitted()
	// RecordQueueDepth reports the pending queue length after an enqueue or dequeue.
	RecordQueueDepth(depth int)
	// RecordTaskDuration reports the elapsed time of a task run by a worker of stream.
	RecordTaskDuration(stream int, d time.Duration)
	// RecordTaskPanic counts a task whose Process panicked.
	RecordTaskPanic(stream int)
	// RecordWorkers reports the live worker count of a stream.
	RecordWorkers(stream int, n int)
}

// NilMetrics is a no-op Metrics. It is the default when none is configured.
type NilMetrics struct{}

func (NilMetrics) RecordSubmitted() {}
func (NilMetrics) RecordQueueDepth(int) {}
func (NilMetrics) RecordTaskDuration(int, time.Duration) {}
func (NilMetrics) RecordTaskPanic(int) {}
func (NilMetrics) RecordWorkers(int, int) {}
