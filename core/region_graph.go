package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/signalsfoundry/colortrace/model"
)

// RegionGraph is an immutable set of regions plus a symmetric adjacency
// relation. It is validated once at construction; editing a map means
// building a new RegionGraph so traces produced against the old one stay
// valid.
type RegionGraph struct {
	name        string
	order       []string
	regions     map[string]model.Region
	adjacencies []model.Adjacency
	neighbors   map[string]map[string]struct{}
}

// NewRegionGraph validates regions and adjacencies and returns the graph.
// It fails with ErrGraph for empty or duplicate region IDs, adjacency pairs
// that reference unknown regions, self-loops, and duplicate unordered pairs.
func NewRegionGraph(regions []model.Region, adjacencies []model.Adjacency) (*RegionGraph, error) {
	g := &RegionGraph{
		order:       make([]string, 0, len(regions)),
		regions:     make(map[string]model.Region, len(regions)),
		adjacencies: make([]model.Adjacency, 0, len(adjacencies)),
		neighbors:   make(map[string]map[string]struct{}, len(regions)),
	}

	for _, r := range regions {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: region id is required", ErrGraph)
		}
		if id != r.ID {
			return nil, fmt.Errorf("%w: region id %q has surrounding whitespace", ErrGraph, r.ID)
		}
		if _, exists := g.regions[id]; exists {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrGraph, id)
		}
		g.regions[id] = r
		g.order = append(g.order, id)
		g.neighbors[id] = make(map[string]struct{})
	}

	seen := make(map[model.Adjacency]struct{}, len(adjacencies))
	for i, adj := range adjacencies {
		a, b := adj[0], adj[1]
		if _, ok := g.regions[a]; !ok {
			return nil, fmt.Errorf("%w: adjacency %d references unknown region %q", ErrGraph, i, a)
		}
		if _, ok := g.regions[b]; !ok {
			return nil, fmt.Errorf("%w: adjacency %d references unknown region %q", ErrGraph, i, b)
		}
		if a == b {
			return nil, fmt.Errorf("%w: adjacency %d is a self-loop on %q", ErrGraph, i, a)
		}
		key := adj.Key()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate adjacency %s-%s", ErrGraph, key[0], key[1])
		}
		seen[key] = struct{}{}
		g.adjacencies = append(g.adjacencies, key)
		g.neighbors[a][b] = struct{}{}
		g.neighbors[b][a] = struct{}{}
	}

	return g, nil
}

// WithName returns a copy of the graph labelled name. The underlying data is
// shared; it is never mutated.
func (g *RegionGraph) WithName(name string) *RegionGraph {
	cp := *g
	cp.name = name
	return &cp
}

// Name is an optional human-readable label for the map.
func (g *RegionGraph) Name() string { return g.name }

// Len returns the number of regions.
func (g *RegionGraph) Len() int { return len(g.order) }

// Has reports whether id is a region of the graph.
func (g *RegionGraph) Has(id string) bool {
	_, ok := g.regions[id]
	return ok
}

// RegionIDs returns region IDs in declaration order.
func (g *RegionGraph) RegionIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Regions returns the regions in declaration order.
func (g *RegionGraph) Regions() []model.Region {
	out := make([]model.Region, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.regions[id])
	}
	return out
}

// Region returns the region with the given id.
func (g *RegionGraph) Region(id string) (model.Region, error) {
	r, ok := g.regions[id]
	if !ok {
		return model.Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	return r, nil
}

// Adjacencies returns the canonical (sorted-pair) adjacency list in
// declaration order.
func (g *RegionGraph) Adjacencies() []model.Adjacency {
	out := make([]model.Adjacency, len(g.adjacencies))
	copy(out, g.adjacencies)
	return out
}

// NeighborsOf returns the IDs adjacent to id, sorted. A region with no
// neighbors yields an empty, non-nil slice.
func (g *RegionGraph) NeighborsOf(id string) ([]string, error) {
	set, ok := g.neighbors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Adjacent reports whether a and b share a border. Unknown IDs are simply
// not adjacent.
func (g *RegionGraph) Adjacent(a, b string) bool {
	_, ok := g.neighbors[a][b]
	return ok
}

// SolveRequest builds the external solve request for this graph.
func (g *RegionGraph) SolveRequest(maxColors int, colors []string) model.SolveRequest {
	return model.SolveRequest{
		Regions:     g.RegionIDs(),
		Adjacencies: g.Adjacencies(),
		Colors:      colors,
		MaxColors:   maxColors,
	}
}
