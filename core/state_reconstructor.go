package core

import (
	"fmt"

	"github.com/signalsfoundry/colortrace/model"
)

// StepState is the reconstructed view of a trace at one step index.
type StepState struct {
	Index           int
	Coloring        model.Coloring
	StepType        model.StepType
	Region          string
	Color           string
	BacktrackReason string
}

// StateAt returns the partial coloring and step metadata at index.
//
// Every step carries a full snapshot of the coloring, so this is an O(1)
// lookup (plus an O(R) copy) and seeking in either direction is trivial.
// Memory is O(N·R) for N steps over R regions. It fails with
// ErrIndexOutOfRange outside [0, TotalSteps); the playback controller clamps
// before calling.
func StateAt(t *Trace, index int) (StepState, error) {
	if t == nil {
		return StepState{}, fmt.Errorf("%w: no trace", ErrIndexOutOfRange)
	}
	step, err := t.Step(index)
	if err != nil {
		return StepState{}, err
	}
	return StepState{
		Index:           index,
		Coloring:        step.CurrentState,
		StepType:        step.StepType,
		Region:          step.Region,
		Color:           step.Color,
		BacktrackReason: step.BacktrackReason,
	}, nil
}

// FinalColoringFor returns the solver's final coloring. An unsuccessful
// trace yields whatever the solver sent, usually an empty mapping.
func FinalColoringFor(t *Trace) model.Coloring {
	if t == nil {
		return model.Coloring{}
	}
	return t.final.Clone()
}
