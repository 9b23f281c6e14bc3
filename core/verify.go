package core

import (
	"sort"

	"github.com/signalsfoundry/colortrace/model"
)

// Conflicts lists the adjacent region pairs that hold the same color label
// at step index. A correct solver never produces one; replay reports them
// rather than rejecting the trace.
func Conflicts(t *Trace, index int) ([]model.Adjacency, error) {
	st, err := StateAt(t, index)
	if err != nil {
		return nil, err
	}
	return coloringConflicts(t.graph, st.Coloring), nil
}

// VerifyTrace returns the indices of every step whose coloring contains an
// adjacent same-color pair, in ascending order.
func VerifyTrace(t *Trace) []int {
	if t == nil {
		return nil
	}
	var bad []int
	for i, s := range t.steps {
		if len(coloringConflicts(t.graph, s.CurrentState)) > 0 {
			bad = append(bad, i)
		}
	}
	return bad
}

func coloringConflicts(g *RegionGraph, c model.Coloring) []model.Adjacency {
	var out []model.Adjacency
	for _, adj := range g.adjacencies {
		ca, okA := c[adj[0]]
		cb, okB := c[adj[1]]
		if okA && okB && ca == cb {
			out = append(out, adj)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
