package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/colortrace/model"
)

func TestIngestAcceptsValidTrace(t *testing.T) {
	tr := failedTriangleTrace(t)
	if tr.TotalSteps() != 7 || tr.Backtracks() != 2 || tr.Success() {
		t.Fatalf("trace = %d steps, %d backtracks, success=%v", tr.TotalSteps(), tr.Backtracks(), tr.Success())
	}
	if tr.ID() == "" {
		t.Fatalf("trace has no id")
	}
	if tr.Graph() == nil || tr.Graph().Len() != 3 {
		t.Fatalf("trace not bound to its graph")
	}
}

func TestIngestAssignsFreshIDs(t *testing.T) {
	raw := rawTrace(true, model.Coloring{"A": "1"}, assign("A", "1", model.Coloring{"A": "1"}))
	g := pathGraph(t)
	a := mustIngest(t, raw, g)
	b := mustIngest(t, raw, g)
	if a.ID() == b.ID() {
		t.Fatalf("two ingestions share id %s", a.ID())
	}
}

func TestIngestRejections(t *testing.T) {
	g := pathGraph(t)
	ok := func() *model.RawTrace {
		return rawTrace(true, model.Coloring{"A": "1"},
			assign("A", "1", model.Coloring{"A": "1"}),
			backtrack("A", "1", model.Coloring{}),
		)
	}

	cases := []struct {
		name    string
		mutate  func(r *model.RawTrace) *model.RawTrace
		message string
	}{
		{"nil trace", func(*model.RawTrace) *model.RawTrace { return nil }, "nil"},
		{"no steps", func(r *model.RawTrace) *model.RawTrace {
			r.Steps, r.TotalSteps, r.Backtracks = nil, 0, 0
			return r
		}, "no steps"},
		{"total mismatch", func(r *model.RawTrace) *model.RawTrace { r.TotalSteps = 5; return r }, "total_steps=5"},
		{"backtrack count mismatch", func(r *model.RawTrace) *model.RawTrace { r.Backtracks = 0; return r }, "backtracks=0"},
		{"unknown step region", func(r *model.RawTrace) *model.RawTrace { r.Steps[1].Region = "Z"; return r }, "step 1 references unknown region"},
		{"unknown state region", func(r *model.RawTrace) *model.RawTrace {
			r.Steps[0].CurrentState = model.Coloring{"A": "1", "Q": "2"}
			return r
		}, "step 0 current_state"},
		{"backtrack without reason", func(r *model.RawTrace) *model.RawTrace { r.Steps[1].BacktrackReason = "  "; return r }, "backtrack step 1"},
		{"unknown step type", func(r *model.RawTrace) *model.RawTrace { r.Steps[0].StepType = "recolor"; return r }, "unknown step_type"},
		{"unknown final region", func(r *model.RawTrace) *model.RawTrace {
			r.FinalColoring = model.Coloring{"Z": "1"}
			return r
		}, "final_coloring"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Ingest(tc.mutate(ok()), g)
			if !errors.Is(err, ErrTraceValidation) {
				t.Fatalf("Ingest error = %v, want ErrTraceValidation", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("Ingest error %q does not mention %q", err, tc.message)
			}
		})
	}
}

func TestIngestAcceptsConflictWithoutReason(t *testing.T) {
	s := conflict("B", "1", model.Coloring{"A": "1"})
	s.BacktrackReason = ""
	mustIngest(t, rawTrace(false, nil, assign("A", "1", model.Coloring{"A": "1"}), s), pathGraph(t))
}

func TestIngestCopiesInput(t *testing.T) {
	raw := rawTrace(true, model.Coloring{"A": "1"}, assign("A", "1", model.Coloring{"A": "1"}))
	tr := mustIngest(t, raw, pathGraph(t))

	raw.Steps[0].CurrentState["A"] = "mutated"
	raw.FinalColoring["A"] = "mutated"

	step, _ := tr.Step(0)
	if step.CurrentState["A"] != "1" {
		t.Fatalf("step state changed through raw payload")
	}
	step.CurrentState["A"] = "again"
	if again, _ := tr.Step(0); again.CurrentState["A"] != "1" {
		t.Fatalf("step state changed through accessor copy")
	}
	if FinalColoringFor(tr)["A"] != "1" {
		t.Fatalf("final coloring changed through raw payload")
	}
}

func TestTraceStepOutOfRange(t *testing.T) {
	tr := linearTrace(t)
	for _, i := range []int{-1, 3} {
		if _, err := tr.Step(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Step(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestLoadTraceWireFormat(t *testing.T) {
	doc := `{
  "success": false,
  "steps": [
    {"region": "A", "color": "red", "step_type": "assign", "current_state": {"A": "red"}},
    {"region": "A", "color": "red", "step_type": "backtrack", "current_state": {}, "backtrack_reason": "dead end"}
  ],
  "final_coloring": {},
  "total_steps": 2,
  "backtracks": 1
}`
	tr, err := LoadTrace(strings.NewReader(doc), pathGraph(t))
	if err != nil {
		t.Fatalf("LoadTrace: %v", err)
	}
	step, _ := tr.Step(1)
	if step.StepType != model.StepBacktrack || step.BacktrackReason != "dead end" {
		t.Fatalf("step 1 = %+v", step)
	}

	raw := tr.Raw()
	if raw.TotalSteps != 2 || raw.Backtracks != 1 || len(raw.Steps) != 2 {
		t.Fatalf("Raw() = %+v", raw)
	}
}

func TestDecodeTraceRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeTrace(strings.NewReader(`{"steps": [`)); !errors.Is(err, ErrTraceValidation) {
		t.Fatalf("DecodeTrace error = %v, want ErrTraceValidation", err)
	}
}
