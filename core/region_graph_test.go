package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/signalsfoundry/colortrace/model"
)

func TestNewRegionGraphRejectsBadInput(t *testing.T) {
	cases := []struct {
		name        string
		regions     []model.Region
		adjacencies []model.Adjacency
	}{
		{"empty id", regionsOf("A", ""), nil},
		{"padded id", regionsOf("A", " B"), nil},
		{"duplicate region", regionsOf("A", "A"), nil},
		{"unknown left end", regionsOf("A", "B"), []model.Adjacency{{"X", "B"}}},
		{"unknown right end", regionsOf("A", "B"), []model.Adjacency{{"A", "X"}}},
		{"self loop", regionsOf("A", "B"), []model.Adjacency{{"A", "A"}}},
		{"duplicate pair", regionsOf("A", "B"), []model.Adjacency{{"A", "B"}, {"A", "B"}}},
		{"duplicate reversed pair", regionsOf("A", "B"), []model.Adjacency{{"A", "B"}, {"B", "A"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegionGraph(tc.regions, tc.adjacencies)
			if !errors.Is(err, ErrGraph) {
				t.Fatalf("NewRegionGraph error = %v, want ErrGraph", err)
			}
		})
	}
}

func TestRegionGraphNeighborsAreSymmetric(t *testing.T) {
	g := mustGraph(t, []string{"A", "B", "C", "D"},
		model.Adjacency{"B", "A"}, model.Adjacency{"A", "C"})

	got, err := g.NeighborsOf("A")
	if err != nil {
		t.Fatalf("NeighborsOf(A): %v", err)
	}
	if want := []string{"B", "C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("NeighborsOf(A) = %v, want %v", got, want)
	}
	for _, id := range []string{"B", "C"} {
		n, _ := g.NeighborsOf(id)
		if !reflect.DeepEqual(n, []string{"A"}) {
			t.Fatalf("NeighborsOf(%s) = %v, want [A]", id, n)
		}
	}

	isolated, err := g.NeighborsOf("D")
	if err != nil {
		t.Fatalf("NeighborsOf(D): %v", err)
	}
	if isolated == nil || len(isolated) != 0 {
		t.Fatalf("NeighborsOf(D) = %#v, want empty non-nil slice", isolated)
	}

	if !g.Adjacent("A", "B") || !g.Adjacent("B", "A") {
		t.Fatalf("A and B should be adjacent both ways")
	}
	if g.Adjacent("B", "C") || g.Adjacent("A", "nope") {
		t.Fatalf("unexpected adjacency")
	}
}

func TestRegionGraphUnknownRegion(t *testing.T) {
	g := pathGraph(t)
	if _, err := g.NeighborsOf("Z"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("NeighborsOf(Z) error = %v, want ErrUnknownRegion", err)
	}
	if _, err := g.Region("Z"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("Region(Z) error = %v, want ErrUnknownRegion", err)
	}
	if g.Has("Z") {
		t.Fatalf("Has(Z) = true")
	}
}

func TestRegionGraphAccessorsReturnCopies(t *testing.T) {
	g := mustGraph(t, []string{"C", "A", "B"}, model.Adjacency{"C", "A"})

	ids := g.RegionIDs()
	if want := []string{"C", "A", "B"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("RegionIDs() = %v, want declaration order %v", ids, want)
	}
	ids[0] = "mutated"
	if g.RegionIDs()[0] != "C" {
		t.Fatalf("RegionIDs exposed internal slice")
	}

	adj := g.Adjacencies()
	if want := []model.Adjacency{{"A", "C"}}; !reflect.DeepEqual(adj, want) {
		t.Fatalf("Adjacencies() = %v, want canonical %v", adj, want)
	}
	adj[0] = model.Adjacency{"x", "y"}
	if g.Adjacencies()[0] != (model.Adjacency{"A", "C"}) {
		t.Fatalf("Adjacencies exposed internal slice")
	}
	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
}

func TestRegionGraphWithNameLeavesOriginal(t *testing.T) {
	g := pathGraph(t)
	named := g.WithName("path")
	if named.Name() != "path" || g.Name() != "" {
		t.Fatalf("names = %q/%q, want path/empty", named.Name(), g.Name())
	}
	if !named.Adjacent("A", "B") {
		t.Fatalf("named copy lost adjacency")
	}
}

func TestRegionGraphSolveRequest(t *testing.T) {
	g := pathGraph(t)
	req := g.SolveRequest(2, []string{"red", "green"})
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !reflect.DeepEqual(req.Regions, []string{"A", "B", "C"}) {
		t.Fatalf("Regions = %v", req.Regions)
	}
	if len(req.Adjacencies) != 2 || req.MaxColors != 2 {
		t.Fatalf("request = %+v", req)
	}
}
