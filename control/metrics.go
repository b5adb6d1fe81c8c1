// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors behind the api.Metrics observer.

package control

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/corepool/api"
)

// MetricsOptions controls collector configuration.
type MetricsOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts api.Metrics to Prometheus collectors.
type MetricsExporter struct {
	submitted    prom.Counter
	queueDepth   prom.Gauge
	taskDuration *prom.HistogramVec
	taskPanics   *prom.CounterVec
	workers      *prom.GaugeVec
}

var _ api.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the pool collectors. Collectors
// already registered under the same names are reused, so several pools can
// share one registry.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts MetricsOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "corepool"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.ExponentialBuckets(0.0001, 4, 10)
	}

	submitted := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_submitted_total",
		Help:      "Total number of tasks enqueued.",
	})
	queueDepth := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current pending queue length.",
	})
	taskDuration := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution time in seconds.",
		Buckets:   buckets,
	}, []string{"stream"})
	taskPanics := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of tasks whose Process panicked.",
	}, []string{"stream"})
	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_workers",
		Help:      "Live pinned workers per stream.",
	}, []string{"stream"})

	var err error
	if submitted, err = registerCollector(reg, submitted); err != nil {
		return nil, err
	}
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}
	if taskDuration, err = registerCollector(reg, taskDuration); err != nil {
		return nil, err
	}
	if taskPanics, err = registerCollector(reg, taskPanics); err != nil {
		return nil, err
	}
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		submitted:    submitted,
		queueDepth:   queueDepth,
		taskDuration: taskDuration,
		taskPanics:   taskPanics,
		workers:      workers,
	}, nil
}

// RecordSubmitted counts one enqueued task.
func (m *MetricsExporter) RecordSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

// RecordQueueDepth sets the pending queue gauge.
func (m *MetricsExporter) RecordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// RecordTaskDuration observes a task run time.
func (m *MetricsExporter) RecordTaskDuration(stream int, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(strconv.Itoa(stream)).Observe(d.Seconds())
}

// RecordTaskPanic counts a recovered task panic.
func (m *MetricsExporter) RecordTaskPanic(stream int) {
	if m == nil {
		return
	}
	m.taskPanics.WithLabelValues(strconv.Itoa(stream)).Inc()
}

// RecordWorkers sets the live worker gauge of a stream.
func (m *MetricsExporter) RecordWorkers(stream int, n int) {
	if m == nil {
		return
	}
	m.workers.WithLabelValues(strconv.Itoa(stream)).Set(float64(n))
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
