package solver

import (
	"sort"

	"github.com/signalsfoundry/colortrace/model"
)

// greedy colors regions by descending degree, giving each the first color
// no colored neighbor holds. It never backtracks and stops at the first
// region left without a color.
func greedy(p *problem, rec *recorder) (bool, error) {
	order := append([]string(nil), p.regions...)
	sort.SliceStable(order, func(i, j int) bool {
		return len(p.neighbors[order[i]]) > len(p.neighbors[order[j]])
	})

	for _, region := range order {
		assigned := false
		for _, color := range p.colors {
			if p.usedByNeighbor(region, color) {
				continue
			}
			p.coloring[region] = color
			if err := rec.record(p, model.StepAssign, region, color, ""); err != nil {
				return false, err
			}
			assigned = true
			break
		}
		if !assigned {
			return false, nil
		}
	}
	return true, nil
}
