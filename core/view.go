package core

import (
	"time"

	"github.com/signalsfoundry/colortrace/model"
)

// PlaybackState is the controller's state machine position.
type PlaybackState int

const (
	// StateIdle means no trace is loaded and the cursor is undefined.
	StateIdle PlaybackState = iota
	// StateReady means a trace is loaded and playback has not started.
	StateReady
	// StatePlaying means the cursor advances on a timer.
	StatePlaying
	// StatePaused means a trace is loaded, the cursor is fixed and no timer
	// is active.
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// View is everything a renderer needs to redraw, copied out of the
// controller so consumers never reach into trace internals. Swatches is
// resolved once per view so every renderer paints the same region with the
// same swatch.
type View struct {
	TraceID string
	State   PlaybackState

	Coloring        model.Coloring
	Swatches        map[string]Swatch
	Legend          []LegendEntry
	SelectedRegion  string
	StepType        model.StepType
	Color           string
	BacktrackReason string

	TotalSteps       int
	CurrentStepIndex int
	IsPlaying        bool
	Speed            time.Duration

	Success       bool
	Backtracks    int
	FinalColoring model.Coloring

	// Revision increases with every state change; observers can drop a
	// delivery whose Revision is not newer than the last one they drew.
	Revision uint64
}

// HasTrace reports whether a trace is loaded.
func (v View) HasTrace() bool { return v.State != StateIdle && v.TotalSteps > 0 }

// AtStart reports whether the cursor is on the first step.
func (v View) AtStart() bool { return v.CurrentStepIndex <= 0 }

// AtEnd reports whether the cursor is on the last step.
func (v View) AtEnd() bool { return v.TotalSteps == 0 || v.CurrentStepIndex >= v.TotalSteps-1 }

// Progress returns the completed fraction in [0, 1], counting the current
// step as shown.
func (v View) Progress() float64 {
	if v.TotalSteps <= 0 || v.CurrentStepIndex < 0 {
		return 0
	}
	return float64(v.CurrentStepIndex+1) / float64(v.TotalSteps)
}
