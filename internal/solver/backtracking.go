package solver

import (
	"fmt"

	"github.com/signalsfoundry/colortrace/model"
)

// backtracking colors regions in request order, trying every color in turn.
// Rejected colors produce conflict steps; undone assignments produce
// backtrack steps.
func backtracking(p *problem, rec *recorder) (bool, error) {
	var visit func(i int) (bool, error)
	visit = func(i int) (bool, error) {
		if i == len(p.regions) {
			return true, nil
		}
		region := p.regions[i]

		for _, color := range p.colors {
			if p.usedByNeighbor(region, color) {
				reason := fmt.Sprintf("color %s is used by a neighbor", color)
				if err := rec.record(p, model.StepConflict, region, color, reason); err != nil {
					return false, err
				}
				continue
			}

			p.coloring[region] = color
			if err := rec.record(p, model.StepAssign, region, color, ""); err != nil {
				return false, err
			}

			ok, err := visit(i + 1)
			if err != nil || ok {
				return ok, err
			}

			delete(p.coloring, region)
			reason := fmt.Sprintf("color %s leads to a conflict further on", color)
			if err := rec.record(p, model.StepBacktrack, region, color, reason); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	return visit(0)
}
