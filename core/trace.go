package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/signalsfoundry/colortrace/model"
)

// Trace is a validated, immutable solver run bound to the graph it was
// checked against. Steps are deep-copied at ingestion so later changes to
// the raw payload cannot leak in, and accessors hand out copies.
type Trace struct {
	id         string
	success    bool
	steps      []model.Step
	final      model.Coloring
	backtracks int
	graph      *RegionGraph
}

// Ingest validates raw against graph and returns an immutable Trace.
//
// It fails with ErrTraceValidation when total_steps or backtracks disagree
// with the step sequence, when any step or its current_state references a
// region unknown to graph, when a backtrack step has no reason, when a step
// type is unknown, when final_coloring references an unknown region, or
// when there are no steps to replay.
func Ingest(raw *model.RawTrace, graph *RegionGraph) (*Trace, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: trace is nil", ErrTraceValidation)
	}
	if graph == nil {
		return nil, fmt.Errorf("%w: region graph is nil", ErrTraceValidation)
	}
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("%w: trace has no steps", ErrTraceValidation)
	}
	if raw.TotalSteps != len(raw.Steps) {
		return nil, fmt.Errorf("%w: total_steps=%d but %d steps were supplied",
			ErrTraceValidation, raw.TotalSteps, len(raw.Steps))
	}

	backtracks := 0
	steps := make([]model.Step, len(raw.Steps))
	for i, s := range raw.Steps {
		if err := validateStep(i, s, graph); err != nil {
			return nil, err
		}
		if s.StepType == model.StepBacktrack {
			backtracks++
		}
		s.CurrentState = s.CurrentState.Clone()
		steps[i] = s
	}
	if raw.Backtracks != backtracks {
		return nil, fmt.Errorf("%w: backtracks=%d but %d backtrack steps were supplied",
			ErrTraceValidation, raw.Backtracks, backtracks)
	}

	for _, region := range raw.FinalColoring.Regions() {
		if !graph.Has(region) {
			return nil, fmt.Errorf("%w: final_coloring references unknown region %q", ErrTraceValidation, region)
		}
	}

	return &Trace{
		id:         uuid.NewString(),
		success:    raw.Success,
		steps:      steps,
		final:      raw.FinalColoring.Clone(),
		backtracks: backtracks,
		graph:      graph,
	}, nil
}

func validateStep(i int, s model.Step, graph *RegionGraph) error {
	if !s.StepType.Valid() {
		return fmt.Errorf("%w: step %d has unknown step_type %q", ErrTraceValidation, i, s.StepType)
	}
	if !graph.Has(s.Region) {
		return fmt.Errorf("%w: step %d references unknown region %q", ErrTraceValidation, i, s.Region)
	}
	// Sorted iteration keeps the reported region stable across runs.
	for _, region := range s.CurrentState.Regions() {
		if !graph.Has(region) {
			return fmt.Errorf("%w: step %d current_state references unknown region %q", ErrTraceValidation, i, region)
		}
	}
	if s.StepType == model.StepBacktrack && strings.TrimSpace(s.BacktrackReason) == "" {
		return fmt.Errorf("%w: backtrack step %d has no backtrack_reason", ErrTraceValidation, i)
	}
	return nil
}

// ID uniquely identifies this ingestion. Two ingestions of the same payload
// yield different IDs.
func (t *Trace) ID() string { return t.id }

// Success reports whether the solver found a complete coloring.
func (t *Trace) Success() bool { return t.success }

// TotalSteps returns the number of steps.
func (t *Trace) TotalSteps() int { return len(t.steps) }

// Backtracks returns the number of backtrack steps.
func (t *Trace) Backtracks() int { return t.backtracks }

// Graph returns the region graph the trace was validated against.
func (t *Trace) Graph() *RegionGraph { return t.graph }

// Step returns a copy of step i.
func (t *Trace) Step(i int) (model.Step, error) {
	if i < 0 || i >= len(t.steps) {
		return model.Step{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(t.steps))
	}
	s := t.steps[i]
	s.CurrentState = s.CurrentState.Clone()
	return s, nil
}

// Raw re-encodes the trace into its wire shape.
func (t *Trace) Raw() *model.RawTrace {
	steps := make([]model.Step, len(t.steps))
	for i := range t.steps {
		steps[i], _ = t.Step(i)
	}
	return &model.RawTrace{
		Success:       t.success,
		Steps:         steps,
		FinalColoring: t.final.Clone(),
		TotalSteps:    len(t.steps),
		Backtracks:    t.backtracks,
	}
}
