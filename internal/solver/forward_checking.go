package solver

import (
	"fmt"

	"github.com/signalsfoundry/colortrace/model"
)

// forwardChecking is backtracking over per-region domains. After each
// assignment the color is pruned from every uncolored neighbor; an
// assignment that empties a neighbor's domain is undone immediately.
func forwardChecking(p *problem, rec *recorder) (bool, error) {
	domains := make(map[string][]string, len(p.regions))
	for _, region := range p.regions {
		domains[region] = append([]string(nil), p.colors...)
	}

	var visit func(i int) (bool, error)
	visit = func(i int) (bool, error) {
		if i == len(p.regions) {
			return true, nil
		}
		region := p.regions[i]

		for _, color := range domains[region] {
			p.coloring[region] = color
			if err := rec.record(p, model.StepAssign, region, color, ""); err != nil {
				return false, err
			}

			pruned, wiped := prune(p, domains, region, color)
			if wiped == "" {
				ok, err := visit(i + 1)
				if err != nil || ok {
					return ok, err
				}
			}
			for n, d := range pruned {
				domains[n] = d
			}

			delete(p.coloring, region)
			reason := fmt.Sprintf("color %s leads to a conflict further on", color)
			if wiped != "" {
				reason = fmt.Sprintf("color %s leaves %s without a color", color, wiped)
			}
			if err := rec.record(p, model.StepBacktrack, region, color, reason); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	return visit(0)
}

// prune removes color from the domain of every uncolored neighbor of region.
// It returns the previous domains of the neighbors it touched and, if one was
// left empty, its id.
func prune(p *problem, domains map[string][]string, region, color string) (pruned map[string][]string, wiped string) {
	pruned = make(map[string][]string)
	for _, n := range p.neighbors[region] {
		if _, colored := p.coloring[n]; colored {
			continue
		}
		d := domains[n]
		idx := indexOf(d, color)
		if idx < 0 {
			continue
		}
		pruned[n] = d
		domains[n] = append(append([]string(nil), d[:idx]...), d[idx+1:]...)
		if len(domains[n]) == 0 && wiped == "" {
			wiped = n
		}
	}
	return pruned, wiped
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}
