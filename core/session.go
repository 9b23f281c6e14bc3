package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/model"
)

// ErrSolveSuperseded is returned by Session.Solve when a newer solve was
// started before this one completed; its trace is dropped.
var ErrSolveSuperseded = errors.New("solve superseded by a newer request")

// Solver is the external coloring collaborator. Implementations perform
// the request/response exchange and return the raw trace; they must not
// retry on their own.
type Solver interface {
	Solve(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error)

// Solve implements Solver.
func (f SolverFunc) Solve(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error) {
	return f(ctx, algorithm, req)
}

// SessionMetricsRecorder counts traces that were refused.
type SessionMetricsRecorder interface {
	ObserveTraceRejected(reason string)
}

// Session ties one region graph, one solver and one playback controller
// together. A solve that fails, or returns a trace that fails validation,
// leaves the previously loaded trace active and playable.
type Session struct {
	mu     sync.Mutex
	loadMu sync.Mutex // serialises the staleness check with the load
	graph  *RegionGraph
	seq    uint64
	solver Solver
	player *PlaybackController

	log     logging.Logger
	metrics SessionMetricsRecorder
}

// SessionOption customises Session construction.
type SessionOption func(*Session)

// WithSessionLogger attaches a structured logger.
func WithSessionLogger(l logging.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSessionMetrics attaches a rejection recorder.
func WithSessionMetrics(r SessionMetricsRecorder) SessionOption {
	return func(s *Session) { s.metrics = r }
}

// NewSession builds a session. solver may be nil when traces are only
// loaded from files.
func NewSession(graph *RegionGraph, solver Solver, player *PlaybackController, opts ...SessionOption) (*Session, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: session needs a region graph", ErrGraph)
	}
	if player == nil {
		player = NewPlaybackController()
	}
	s := &Session{
		graph:  graph,
		solver: solver,
		player: player,
		log:    logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Player returns the playback controller.
func (s *Session) Player() *PlaybackController { return s.player }

// Graph returns the graph new solves are issued against.
func (s *Session) Graph() *RegionGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// SetGraph swaps in a new graph instance, for example after the map file
// was edited. The loaded trace keeps referencing the graph it was
// validated against and stays playable.
func (s *Session) SetGraph(g *RegionGraph) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrGraph)
	}
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
	s.log.Info(context.Background(), "region graph replaced",
		logging.String("map", g.Name()),
		logging.Int("regions", g.Len()),
	)
	return nil
}

// Solve requests a trace for the current graph and loads it. It blocks
// until the solver answers or ctx ends. Transport failures are returned
// wrapped in ErrSolveRequestFailed; invalid traces in ErrTraceValidation.
// In both cases the active trace is untouched.
func (s *Session) Solve(ctx context.Context, algorithm model.Algorithm, maxColors int) (*Trace, error) {
	if s.solver == nil {
		return nil, fmt.Errorf("%w: no solver configured", ErrSolveRequestFailed)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	graph := s.graph
	s.mu.Unlock()

	ctx, log := logging.WithTraceLogger(ctx, s.log)
	req := graph.SolveRequest(maxColors, nil)
	if err := req.Validate(); err != nil {
		s.reject(ctx, log, "invalid_request", err)
		return nil, fmt.Errorf("%w: %v", ErrSolveRequestFailed, err)
	}

	log.Info(ctx, "requesting solve",
		logging.String("algorithm", string(algorithm)),
		logging.Int("max_colors", maxColors),
		logging.Int("regions", graph.Len()),
	)
	raw, err := s.solver.Solve(ctx, algorithm, req)
	if err != nil {
		if !errors.Is(err, ErrSolveRequestFailed) {
			err = fmt.Errorf("%w: %v", ErrSolveRequestFailed, err)
		}
		s.reject(ctx, log, "solve_failed", err)
		return nil, err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale {
		s.reject(ctx, log, "superseded", ErrSolveSuperseded)
		return nil, ErrSolveSuperseded
	}

	return s.load(ctx, log, raw, graph)
}

// LoadRaw validates raw against the current graph and loads it. Like a
// newer Solve, it supersedes any solve still in flight.
func (s *Session) LoadRaw(ctx context.Context, raw *model.RawTrace) (*Trace, error) {
	ctx, log := logging.WithTraceLogger(ctx, s.log)

	s.mu.Lock()
	s.seq++
	graph := s.graph
	s.mu.Unlock()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx, log, raw, graph)
}

func (s *Session) load(ctx context.Context, log logging.Logger, raw *model.RawTrace, graph *RegionGraph) (*Trace, error) {
	t, err := Ingest(raw, graph)
	if err != nil {
		s.reject(ctx, log, "validation", err)
		return nil, err
	}
	if conflicts := VerifyTrace(t); len(conflicts) > 0 {
		log.Warn(ctx, "trace contains adjacent regions sharing a color",
			logging.String("trace_id", t.ID()),
			logging.Any("steps", conflicts),
		)
	}
	if err := s.player.Load(t); err != nil {
		s.reject(ctx, log, "load", err)
		return nil, err
	}
	return t, nil
}

func (s *Session) reject(ctx context.Context, log logging.Logger, reason string, err error) {
	log.Warn(ctx, "trace not loaded; keeping previous trace",
		logging.String("reason", reason),
		logging.Err(err),
	)
	if s.metrics != nil {
		s.metrics.ObserveTraceRejected(reason)
	}
}
