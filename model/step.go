package model

// StepType classifies a single solver event.
type StepType string

const (
	// StepAssign records a color being assigned to a region.
	StepAssign StepType = "assign"
	// StepConflict records a color that was tried and rejected because a
	// neighbor already holds it.
	StepConflict StepType = "conflict"
	// StepBacktrack records an assignment being undone.
	StepBacktrack StepType = "backtrack"
)

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	switch t {
	case StepAssign, StepConflict, StepBacktrack:
		return true
	default:
		return false
	}
}

// Step is one immutable record of a solver run.
type Step struct {
	Region   string   `json:"region"`
	Color    string   `json:"color"`
	StepType StepType `json:"step_type"`
	// CurrentState is the full coloring immediately after this step.
	CurrentState Coloring `json:"current_state"`
	// BacktrackReason is required on backtrack steps. Solvers may also
	// explain conflicts with it.
	BacktrackReason string `json:"backtrack_reason,omitempty"`
}

// RawTrace is the solver response exactly as received, before validation.
type RawTrace struct {
	Success       bool     `json:"success"`
	Steps         []Step   `json:"steps"`
	FinalColoring Coloring `json:"final_coloring"`
	TotalSteps    int      `json:"total_steps"`
	Backtracks    int      `json:"backtracks"`
}
