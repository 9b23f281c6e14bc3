package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestPlaybackCollectorRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlaybackCollector(reg)
	if err != nil {
		t.Fatalf("NewPlaybackCollector: %v", err)
	}

	collector.ObserveLoad(12)
	collector.ObservePlaying(true)
	collector.ObserveTick()
	collector.ObserveTick()
	collector.ObserveCursor(2)
	collector.ObserveTraceRejected("validation")

	if got := testutil.ToFloat64(collector.TracesLoaded); got != 1 {
		t.Fatalf("playback_traces_loaded_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.TotalSteps); got != 12 {
		t.Fatalf("playback_trace_steps = %v, want 12", got)
	}
	if got := testutil.ToFloat64(collector.Ticks); got != 2 {
		t.Fatalf("playback_ticks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Cursor); got != 2 {
		t.Fatalf("playback_cursor_step = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Playing); got != 1 {
		t.Fatalf("playback_playing = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.TracesRejected.WithLabelValues("validation")); got != 1 {
		t.Fatalf("playback_traces_rejected_total{reason=validation} = %v, want 1", got)
	}

	collector.ObservePlaying(false)
	if got := testutil.ToFloat64(collector.Playing); got != 0 {
		t.Fatalf("playback_playing after pause = %v, want 0", got)
	}
}

func TestNilPlaybackCollectorIsSafe(t *testing.T) {
	var c *PlaybackCollector
	c.ObserveLoad(1)
	c.ObserveTick()
	c.ObserveCursor(0)
	c.ObservePlaying(true)
	c.ObserveTraceRejected("x")
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPlaybackCollector(reg)
	if err != nil {
		t.Fatalf("first NewPlaybackCollector: %v", err)
	}
	second, err := NewPlaybackCollector(reg)
	if err != nil {
		t.Fatalf("second NewPlaybackCollector: %v", err)
	}
	first.ObserveTick()
	if got := testutil.ToFloat64(second.Ticks); got != 1 {
		t.Fatalf("shared playback_ticks_total = %v, want 1", got)
	}
}

func TestSolveCollectorRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSolveCollector(reg, "solve_client")
	if err != nil {
		t.Fatalf("NewSolveCollector: %v", err)
	}

	collector.ObserveSolve("backtracking", OutcomeSolved, 15*time.Millisecond, 40)
	collector.ObserveSolve("greedy", OutcomeError, time.Millisecond, 0)

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("backtracking", OutcomeSolved)); got != 1 {
		t.Fatalf("solve_client_requests_total ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("greedy", OutcomeError)); got != 1 {
		t.Fatalf("solve_client_requests_total error = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "solve_client_request_duration_seconds", map[string]string{
		"algorithm": "backtracking",
	}); count != 1 {
		t.Fatalf("duration sample_count = %d, want 1", count)
	}
	if count := histogramSampleCount(t, reg, "solve_client_trace_steps", map[string]string{
		"algorithm": "greedy",
	}); count != 0 {
		t.Fatalf("steps sample_count for failed solve = %d, want 0", count)
	}
}

func TestMetricsHandlerExposesPlaybackGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlaybackCollector(reg)
	if err != nil {
		t.Fatalf("NewPlaybackCollector: %v", err)
	}
	collector.ObserveLoad(7)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"playback_traces_loaded_total",
		"playback_trace_steps 7",
		"playback_ticks_total",
		"playback_cursor_step",
		"playback_playing",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
