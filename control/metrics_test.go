package control

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	m, err := NewMetricsExporter("corepool", reg, MetricsOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	m.RecordSubmitted()
	m.RecordSubmitted()
	m.RecordQueueDepth(7)
	m.RecordTaskDuration(1, 3*time.Millisecond)
	m.RecordTaskPanic(1)
	m.RecordWorkers(0, 4)

	if got := testutil.ToFloat64(m.submitted); got != 2 {
		t.Errorf("submitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 7 {
		t.Errorf("queue depth = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.taskPanics.WithLabelValues("1")); got != 1 {
		t.Errorf("panics = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.workers.WithLabelValues("0")); got != 4 {
		t.Errorf("workers = %v, want 4", got)
	}
	if got := testutil.CollectAndCount(m.taskDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("corepool", reg, MetricsOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewMetricsExporter("corepool", reg, MetricsOptions{})
	if err != nil {
		t.Fatal(err)
	}

	first.RecordSubmitted()
	second.RecordSubmitted()

	if got := testutil.ToFloat64(first.submitted); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var m *MetricsExporter
	m.RecordSubmitted()
	m.RecordQueueDepth(1)
	m.RecordTaskDuration(0, time.Second)
	m.RecordTaskPanic(0)
	m.RecordWorkers(0, 1)
}
