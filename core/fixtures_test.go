package core

import (
	"testing"

	"github.com/signalsfoundry/colortrace/model"
)

func regionsOf(ids ...string) []model.Region {
	out := make([]model.Region, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Region{ID: id})
	}
	return out
}

func mustGraph(t *testing.T, ids []string, adjacencies ...model.Adjacency) *RegionGraph {
	t.Helper()
	g, err := NewRegionGraph(regionsOf(ids...), adjacencies)
	if err != nil {
		t.Fatalf("NewRegionGraph: %v", err)
	}
	return g
}

// pathGraph is A-B-C with no A-C border.
func pathGraph(t *testing.T) *RegionGraph {
	return mustGraph(t, []string{"A", "B", "C"}, model.Adjacency{"A", "B"}, model.Adjacency{"B", "C"})
}

// triangleGraph is A, B and C all bordering each other.
func triangleGraph(t *testing.T) *RegionGraph {
	return mustGraph(t, []string{"A", "B", "C"},
		model.Adjacency{"A", "B"}, model.Adjacency{"B", "C"}, model.Adjacency{"A", "C"})
}

func assign(region, color string, state model.Coloring) model.Step {
	return model.Step{Region: region, Color: color, StepType: model.StepAssign, CurrentState: state}
}

func conflict(region, color string, state model.Coloring) model.Step {
	return model.Step{
		Region:          region,
		Color:           color,
		StepType:        model.StepConflict,
		CurrentState:    state,
		BacktrackReason: "color " + color + " is used by a neighbor",
	}
}

func backtrack(region, color string, state model.Coloring) model.Step {
	return model.Step{
		Region:          region,
		Color:           color,
		StepType:        model.StepBacktrack,
		CurrentState:    state,
		BacktrackReason: "color " + color + " leads to a conflict further on",
	}
}

// rawTrace fills in total_steps and backtracks from steps.
func rawTrace(success bool, final model.Coloring, steps ...model.Step) *model.RawTrace {
	backtracks := 0
	for _, s := range steps {
		if s.StepType == model.StepBacktrack {
			backtracks++
		}
	}
	return &model.RawTrace{
		Success:       success,
		Steps:         steps,
		FinalColoring: final,
		TotalSteps:    len(steps),
		Backtracks:    backtracks,
	}
}

func mustIngest(t *testing.T, raw *model.RawTrace, g *RegionGraph) *Trace {
	t.Helper()
	tr, err := Ingest(raw, g)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return tr
}

// linearTrace colors the path graph 1,2,1.
func linearTrace(t *testing.T) *Trace {
	t.Helper()
	return mustIngest(t, rawTrace(true, model.Coloring{"A": "1", "B": "2", "C": "1"},
		assign("A", "1", model.Coloring{"A": "1"}),
		assign("B", "2", model.Coloring{"A": "1", "B": "2"}),
		assign("C", "1", model.Coloring{"A": "1", "B": "2", "C": "1"}),
	), pathGraph(t))
}

// longTrace has n assign steps alternating A between two colors.
func longTrace(t *testing.T, n int) *Trace {
	t.Helper()
	steps := make([]model.Step, n)
	for i := range steps {
		color := "red"
		if i%2 == 1 {
			color = "green"
		}
		steps[i] = assign("A", color, model.Coloring{"A": color})
	}
	return mustIngest(t, rawTrace(false, model.Coloring{}, steps...), pathGraph(t))
}

// failedTriangleTrace is a two-color attempt on the triangle that gives up.
func failedTriangleTrace(t *testing.T) *Trace {
	t.Helper()
	return mustIngest(t, rawTrace(false, model.Coloring{},
		assign("A", "red", model.Coloring{"A": "red"}),
		conflict("B", "red", model.Coloring{"A": "red"}),
		assign("B", "green", model.Coloring{"A": "red", "B": "green"}),
		conflict("C", "red", model.Coloring{"A": "red", "B": "green"}),
		conflict("C", "green", model.Coloring{"A": "red", "B": "green"}),
		backtrack("B", "green", model.Coloring{"A": "red"}),
		backtrack("A", "red", model.Coloring{}),
	), triangleGraph(t))
}
