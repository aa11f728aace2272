package metrics

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"vrpdfd/pkg/apperror"
)

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test", "service")

	if m.SolveOperationsTotal == nil || m.SolveDuration == nil || m.TSPMethodTotal == nil {
		t.Fatal("collectors should not be nil")
	}

	// Второй набор в тот же registry конфликтует
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg, "test", "service")
}

func TestNew_SeparateRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry(), "test", "a")
	b := New(prometheus.NewRegistry(), "test", "a")
	if a == b {
		t.Error("expected distinct instances")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{apperror.New(apperror.CodeInvalidGraph, "bad"), "INVALID_GRAPH"},
		{errors.New("plain"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRecordSolveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test", "solve")

	m.RecordSolveOperation("max_flow", nil, 5*time.Millisecond)
	m.RecordSolveOperation("max_flow", nil, 7*time.Millisecond)
	m.RecordSolveOperation("max_flow", apperror.New(apperror.CodeInvalidGraph, "x"), time.Millisecond)

	if got := testutil.ToFloat64(m.SolveOperationsTotal.WithLabelValues("max_flow", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SolveOperationsTotal.WithLabelValues("max_flow", "INVALID_GRAPH")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRecordFlowAndGraph(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test", "flow")

	m.RecordFlow("weighted_flow", 12.5, 3)
	m.RecordGraphSize("weighted_flow", 6, 9)

	if got := testutil.ToFloat64(m.FlowValue.WithLabelValues("weighted_flow")); got != 12.5 {
		t.Errorf("flow value = %v, want 12.5", got)
	}
	if n := testutil.CollectAndCount(m.GraphNodesTotal); n != 1 {
		t.Errorf("expected one node series, got %d", n)
	}
}

func TestRecordTSPAndMemo(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test", "tsp")

	m.RecordTSP("held_karp", 9)
	m.RecordTSP("held_karp", 12)
	m.RecordTSP("two_opt", 40)
	m.SetMemo(3, 2, 4)

	if got := testutil.ToFloat64(m.TSPMethodTotal.WithLabelValues("held_karp")); got != 2 {
		t.Errorf("held_karp = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.MemoHits); got != 3 {
		t.Errorf("memo hits = %v", got)
	}
	if got := testutil.ToFloat64(m.MemoEntries); got != 4 {
		t.Errorf("memo entries = %v", got)
	}
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "vrpdfd", "solver")
	m.SetServiceInfo("1.0.0", "test")
	m.RecordTSP("two_opt", 30)

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# TYPE vrpdfd_solver_tsp_method_total counter",
		`vrpdfd_solver_tsp_method_total{method="two_opt"} 1`,
		`vrpdfd_solver_service_info{environment="test",version="1.0.0"} 1`,
		"vrpdfd_solver_runtime_goroutines",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRuntimeCollector(t *testing.T) {
	collector := NewRuntimeCollector("test", "runtime")

	descCh := make(chan *prometheus.Desc, 10)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 descriptors, got %d", count)
	}

	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count = 0
	for range metricCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 metrics, got %d", count)
	}
}

func TestRuntimeCollector_GCPause(t *testing.T) {
	runtime.GC()

	collector := NewRuntimeCollector("test", "gc")
	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count := 0
	for range metricCh {
		count++
	}
	if count != 6 {
		t.Errorf("expected 6 metrics after a GC, got %d", count)
	}
}

func TestJobTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"})
	tracker := NewJobTracker(gauge)

	tracker.Start("flow")
	tracker.Start("flow")
	tracker.Start("tsp")

	if tracker.Active("flow") != 2 {
		t.Errorf("active[flow] = %d, want 2", tracker.Active("flow"))
	}
	if got := testutil.ToFloat64(gauge); got != 3 {
		t.Errorf("in flight = %v, want 3", got)
	}

	tracker.End("flow")
	tracker.End("flow")
	tracker.End("flow")
	if tracker.Active("flow") != 0 {
		t.Error("active count should not go negative")
	}
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}
