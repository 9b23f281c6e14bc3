// Package solverapi serves the reference solver over HTTP.
package solverapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/solver"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// SolveIDHeader carries the solve_id across the client/server hop.
const SolveIDHeader = "X-Solve-ID"

// DefaultMaxRegions bounds the size of a single solve request.
const DefaultMaxRegions = 64

// Server routes solve requests to the reference algorithms.
type Server struct {
	engine      *gin.Engine
	log         logging.Logger
	metrics     *observability.SolveCollector
	limiter     *rate.Limiter
	serviceName string
	maxRegions  int
	maxSteps    int
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithLogger sets the base logger; each request gets a child annotated with
// its solve_id.
func WithLogger(log logging.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records every solve in collector.
func WithMetrics(collector *observability.SolveCollector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithRateLimit admits at most perSecond solve requests per second with the
// given burst. Non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxRegions caps the number of regions accepted per request.
func WithMaxRegions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRegions = n
		}
	}
}

// WithMaxSteps caps the trace length of a single solve.
func WithMaxSteps(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithServiceName sets the service name reported on HTTP spans.
func WithServiceName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// NewServer builds the gin engine with tracing, solve_id propagation, and
// optional rate limiting.
func NewServer(opts ...Option) *Server {
	s := &Server{
		log:         logging.Noop(),
		serviceName: "colortrace-solver",
		maxRegions:  DefaultMaxRegions,
		maxSteps:    solver.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(s.serviceName))
	engine.Use(solveIDMiddleware(s.log))

	engine.GET("/health", s.handleHealth)
	solve := engine.Group("/solve")
	if s.limiter != nil {
		solve.Use(rateLimitMiddleware(s.limiter))
	}
	solve.POST("/:algorithm", s.handleSolve)

	s.engine = engine
	return s
}

// Handler exposes the router for http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}
