// Package solver implements the reference map-coloring strategies that
// produce replayable traces.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/colortrace/model"
)

var (
	// ErrUnknownAlgorithm reports an algorithm name with no implementation.
	ErrUnknownAlgorithm = errors.New("unsupported algorithm")
	// ErrInvalidProblem reports a request whose regions or adjacencies are
	// inconsistent.
	ErrInvalidProblem = errors.New("invalid coloring problem")
	// ErrStepLimit reports a run that recorded more steps than allowed.
	ErrStepLimit = errors.New("step limit exceeded")
)

// DefaultMaxSteps bounds the trace length of a single run.
const DefaultMaxSteps = 100_000

type options struct {
	maxSteps int
}

// Option tunes a solver run.
type Option func(*options)

// WithMaxSteps caps the number of recorded steps. Non-positive values keep
// the default.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// Solve runs algorithm over req and returns the full trace. Unsuccessful runs
// are not errors: they return a trace with Success false and an empty final
// coloring.
func Solve(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest, opts ...Option) (*model.RawTrace, error) {
	o := options{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&o)
	}

	p, err := newProblem(req)
	if err != nil {
		return nil, err
	}
	rec := &recorder{ctx: ctx, maxSteps: o.maxSteps}

	var success bool
	switch algorithm {
	case model.AlgorithmBacktracking:
		success, err = backtracking(p, rec)
	case model.AlgorithmGreedy:
		success, err = greedy(p, rec)
	case model.AlgorithmForwardChecking:
		success, err = forwardChecking(p, rec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	if err != nil {
		return nil, err
	}
	return rec.trace(success, p.coloring), nil
}

// Local runs the reference algorithms in-process. It satisfies the
// collaborator interface the playback session expects from a remote solver.
type Local struct {
	MaxSteps int
}

// Solve implements core.Solver.
func (l Local) Solve(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error) {
	return Solve(ctx, algorithm, req, WithMaxSteps(l.MaxSteps))
}

// problem is the mutable search state shared by every strategy.
type problem struct {
	regions   []string
	colors    []string
	neighbors map[string][]string
	coloring  model.Coloring
}

func newProblem(req model.SolveRequest) (*problem, error) {
	if len(req.Regions) == 0 {
		return nil, fmt.Errorf("%w: no regions", ErrInvalidProblem)
	}
	colors := req.Labels()
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: no colors", ErrInvalidProblem)
	}

	p := &problem{
		regions:   append([]string(nil), req.Regions...),
		colors:    colors,
		neighbors: make(map[string][]string, len(req.Regions)),
		coloring:  make(model.Coloring, len(req.Regions)),
	}
	for _, id := range req.Regions {
		if _, dup := p.neighbors[id]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidProblem, id)
		}
		p.neighbors[id] = nil
	}
	seen := make(map[model.Adjacency]struct{}, len(req.Adjacencies))
	for i, adj := range req.Adjacencies {
		a, b := adj[0], adj[1]
		if _, ok := p.neighbors[a]; !ok {
			return nil, fmt.Errorf("%w: adjacency %d references unknown region %q", ErrInvalidProblem, i, a)
		}
		if _, ok := p.neighbors[b]; !ok {
			return nil, fmt.Errorf("%w: adjacency %d references unknown region %q", ErrInvalidProblem, i, b)
		}
		if a == b {
			return nil, fmt.Errorf("%w: adjacency %d is a self-loop on %q", ErrInvalidProblem, i, a)
		}
		key := adj.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p.neighbors[a] = append(p.neighbors[a], b)
		p.neighbors[b] = append(p.neighbors[b], a)
	}
	return p, nil
}

// usedByNeighbor reports whether any colored neighbor of region holds color.
func (p *problem) usedByNeighbor(region, color string) bool {
	for _, n := range p.neighbors[region] {
		if c, ok := p.coloring[n]; ok && c == color {
			return true
		}
	}
	return false
}

// recorder accumulates steps, snapshotting the coloring after each one.
type recorder struct {
	ctx        context.Context
	maxSteps   int
	steps      []model.Step
	backtracks int
}

func (r *recorder) record(p *problem, typ model.StepType, region, color, reason string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if len(r.steps) >= r.maxSteps {
		return fmt.Errorf("%w: more than %d steps", ErrStepLimit, r.maxSteps)
	}
	if typ == model.StepBacktrack {
		r.backtracks++
	}
	r.steps = append(r.steps, model.Step{
		Region:          region,
		Color:           color,
		StepType:        typ,
		CurrentState:    p.coloring.Clone(),
		BacktrackReason: reason,
	})
	return nil
}

func (r *recorder) trace(success bool, final model.Coloring) *model.RawTrace {
	out := &model.RawTrace{
		Success:       success,
		Steps:         r.steps,
		FinalColoring: model.Coloring{},
		TotalSteps:    len(r.steps),
		Backtracks:    r.backtracks,
	}
	if success {
		out.FinalColoring = final.Clone()
	}
	return out
}
