package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlaybackCollector bundles Prometheus metrics for trace replay. It
// satisfies core.PlaybackMetricsRecorder and core.SessionMetricsRecorder.
type PlaybackCollector struct {
	gatherer prometheus.Gatherer

	TracesLoaded   prometheus.Counter
	TracesRejected *prometheus.CounterVec
	Ticks          prometheus.Counter
	Cursor         prometheus.Gauge
	TotalSteps     prometheus.Gauge
	Playing        prometheus.Gauge
}

// NewPlaybackCollector registers playback metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPlaybackCollector(reg prometheus.Registerer) (*PlaybackCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	loaded, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_traces_loaded_total",
		Help: "Number of traces made active in the playback controller.",
	}), "playback_traces_loaded_total")
	if err != nil {
		return nil, err
	}

	rejected, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_traces_rejected_total",
		Help: "Number of solve attempts that left the previous trace active, labeled by reason.",
	}, []string{"reason"}), "playback_traces_rejected_total")
	if err != nil {
		return nil, err
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_ticks_total",
		Help: "Number of timer ticks that advanced the playback cursor.",
	}), "playback_ticks_total")
	if err != nil {
		return nil, err
	}

	cursor, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_cursor_step",
		Help: "Current playback cursor (zero-based step index).",
	}), "playback_cursor_step")
	if err != nil {
		return nil, err
	}

	total, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_trace_steps",
		Help: "Number of steps in the active trace.",
	}), "playback_trace_steps")
	if err != nil {
		return nil, err
	}

	playing, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_playing",
		Help: "1 while the playback timer is running, 0 otherwise.",
	}), "playback_playing")
	if err != nil {
		return nil, err
	}

	return &PlaybackCollector{
		gatherer:       gatherer,
		TracesLoaded:   loaded,
		TracesRejected: rejected,
		Ticks:          ticks,
		Cursor:         cursor,
		TotalSteps:     total,
		Playing:        playing,
	}, nil
}

// ObserveLoad records a trace becoming active.
func (c *PlaybackCollector) ObserveLoad(totalSteps int) {
	if c == nil {
		return
	}
	c.TracesLoaded.Inc()
	c.TotalSteps.Set(float64(totalSteps))
}

// ObserveTick records one cursor advance.
func (c *PlaybackCollector) ObserveTick() {
	if c == nil {
		return
	}
	c.Ticks.Inc()
}

// ObserveCursor records the cursor position.
func (c *PlaybackCollector) ObserveCursor(index int) {
	if c == nil {
		return
	}
	c.Cursor.Set(float64(index))
}

// ObservePlaying records whether playback is running.
func (c *PlaybackCollector) ObservePlaying(playing bool) {
	if c == nil {
		return
	}
	if playing {
		c.Playing.Set(1)
		return
	}
	c.Playing.Set(0)
}

// ObserveTraceRejected records a solve or load that did not replace the
// active trace.
func (c *PlaybackCollector) ObserveTraceRejected(reason string) {
	if c == nil {
		return
	}
	c.TracesRejected.WithLabelValues(reason).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlaybackCollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

// Solve outcomes shared by the client and the solver service.
const (
	OutcomeSolved     = "solved"
	OutcomeUnsolved   = "unsolved"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

// SolveOutcome maps a finished solve to OutcomeSolved or OutcomeUnsolved.
func SolveOutcome(success bool) string {
	if success {
		return OutcomeSolved
	}
	return OutcomeUnsolved
}

// SolveCollector measures solve round trips. The client records outbound
// calls and the solver service records the requests it serves.
type SolveCollector struct {
	gatherer prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
	Steps     *prometheus.HistogramVec
}

// NewSolveCollector registers solve metrics under the given prefix
// ("solve_client" or "solver_http").
func NewSolveCollector(reg prometheus.Registerer, prefix string) (*SolveCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	if prefix == "" {
		prefix = "solve"
	}

	requestsName := prefix + "_requests_total"
	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: requestsName,
		Help: "Total number of solve requests, labeled by algorithm and outcome.",
	}, []string{"algorithm", "outcome"}), requestsName)
	if err != nil {
		return nil, err
	}

	durationsName := prefix + "_request_duration_seconds"
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    durationsName,
		Help:    "Solve request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"algorithm"}), durationsName)
	if err != nil {
		return nil, err
	}

	stepsName := prefix + "_trace_steps"
	steps, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    stepsName,
		Help:    "Number of steps in returned traces.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 9),
	}, []string{"algorithm"}), stepsName)
	if err != nil {
		return nil, err
	}

	return &SolveCollector{
		gatherer:  gatherer,
		Requests:  requests,
		Durations: durations,
		Steps:     steps,
	}, nil
}

// ObserveSolve records one solve outcome.
func (c *SolveCollector) ObserveSolve(algorithm, outcome string, elapsed time.Duration, steps int) {
	if c == nil {
		return
	}
	if algorithm == "" {
		algorithm = "unknown"
	}
	c.Requests.WithLabelValues(algorithm, outcome).Inc()
	c.Durations.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	if steps > 0 {
		c.Steps.WithLabelValues(algorithm).Observe(float64(steps))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SolveCollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

func handlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
