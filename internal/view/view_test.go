package view

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func TestParsePath(t *testing.T) {
	polys, err := parsePath("M50,50 L150,30 L250,70 Z")
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Equal(t, polygon{{X: 50, Y: 50}, {X: 150, Y: 30}, {X: 250, Y: 70}}, polys[0])

	polys, err = parsePath("m10 10 l10 0 v10 h-10 z M100,100 L110,100 L110,110 Z")
	require.NoError(t, err)
	require.Len(t, polys, 2)
	assert.Equal(t, polygon{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}, polys[0])

	for _, bad := range []string{"L10,10 L20,20 Z", "M10,10 C1,2,3,4,5,6", "M10", "M1e,2"} {
		_, err := parsePath(bad)
		assert.Error(t, err, "path %q", bad)
	}
}

func TestPolygonContains(t *testing.T) {
	square := polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.True(t, square.contains(model.Point{X: 5, Y: 5}))
	assert.False(t, square.contains(model.Point{X: 15, Y: 5}))
	assert.Equal(t, model.Point{X: 5, Y: 5}, square.centroid())
}

func TestMapViewRasterisesDefaultMap(t *testing.T) {
	// The default map spans x 20..380 and y 30..250, so a 36x22 grid makes
	// every cell 10x10 map units.
	mv, err := NewMapView(core.DefaultMap(), WithSize(36, 22))
	require.NoError(t, err)

	cases := []struct {
		x, y int
		want string
	}{
		{12, 6, "A"},  // (145, 95)
		{8, 15, "E"},  // (105, 185): E is painted over D
		{33, 6, "B"},  // (355, 95)
		{26, 18, "F"}, // (285, 215): F is painted over C
	}
	for _, tc := range cases {
		got, ok := mv.RegionAtCell(tc.x, tc.y)
		assert.True(t, ok, "cell %d,%d", tc.x, tc.y)
		assert.Equal(t, tc.want, got, "cell %d,%d", tc.x, tc.y)
	}

	_, ok := mv.RegionAtCell(0, 0)
	assert.False(t, ok, "top-left corner is outside every region")
	_, ok = mv.RegionAtCell(-1, 3)
	assert.False(t, ok)
	assert.Empty(t, mv.Unplaced())
}

func TestMapViewRenderShowsLabelsAndSelection(t *testing.T) {
	graph := core.DefaultMap()
	mv, err := NewMapView(graph, WithSize(36, 22))
	require.NoError(t, err)

	out := plain(mv.Render(core.View{
		State:          core.StateReady,
		SelectedRegion: "C",
		Swatches:       map[string]core.Swatch{"A": core.DefaultPalette()[0]},
	}))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 22)
	for _, id := range graph.RegionIDs() {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, selectedFill)

	unselected := plain(mv.Render(core.View{State: core.StateReady}))
	assert.NotContains(t, unselected, selectedFill)
}

func TestMapViewListsRegionsWithoutShape(t *testing.T) {
	g, err := core.NewRegionGraph([]model.Region{{ID: "A"}, {ID: "B"}}, []model.Adjacency{{"A", "B"}})
	require.NoError(t, err)

	mv, err := NewMapView(g, WithSize(10, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, mv.Unplaced())
	assert.Contains(t, plain(mv.Render(core.View{})), "no outline")
}

func TestMapViewRejectsBadShapes(t *testing.T) {
	g, err := core.NewRegionGraph([]model.Region{{ID: "A", Shape: "M0,0 Q1,1 2,2 Z"}}, nil)
	require.NoError(t, err)

	_, err = NewMapView(g)
	assert.True(t, errors.Is(err, core.ErrGraph), "error %v", err)

	_, err = NewMapView(nil)
	assert.Error(t, err)
}

func loadedController(t *testing.T) *core.PlaybackController {
	t.Helper()
	raw := &model.RawTrace{
		Success: true,
		Steps: []model.Step{
			{Region: "A", Color: "red", StepType: model.StepAssign, CurrentState: model.Coloring{"A": "red"}},
			{Region: "B", Color: "red", StepType: model.StepConflict, CurrentState: model.Coloring{"A": "red"},
				BacktrackReason: "color red is used by a neighbor"},
			{Region: "B", Color: "green", StepType: model.StepAssign, CurrentState: model.Coloring{"A": "red", "B": "green"}},
		},
		FinalColoring: model.Coloring{"A": "red", "B": "green"},
		TotalSteps:    3,
	}
	trace, err := core.Ingest(raw, core.DefaultMap())
	require.NoError(t, err)

	pc := core.NewPlaybackController()
	t.Cleanup(pc.Close)
	require.NoError(t, pc.Load(trace))
	return pc
}

func TestLegendViewDescribesSteps(t *testing.T) {
	pc := loadedController(t)
	legend := NewLegendView()

	first := plain(legend.Render(pc.Snapshot()))
	assert.Contains(t, first, "Step 1 of 3")
	assert.Contains(t, first, "ASSIGN")
	assert.Contains(t, first, "Region A")
	assert.Contains(t, first, "red: A")
	assert.NotContains(t, first, "Solution found")

	pc.Next()
	conflict := plain(legend.Render(pc.Snapshot()))
	assert.Contains(t, conflict, "CONFLICT")
	assert.Contains(t, conflict, "Reason: color red is used by a neighbor")

	pc.Last()
	last := plain(legend.Render(pc.Snapshot()))
	assert.Contains(t, last, "green: B")
	assert.Contains(t, last, "Solution found")
	assert.Contains(t, last, "A=red B=green")
}

func TestLegendViewIdle(t *testing.T) {
	assert.Equal(t, "no trace loaded", plain(NewLegendView().Render(core.View{})))
}

func TestMapAndLegendShareSwatches(t *testing.T) {
	pc := loadedController(t)
	pc.Last()
	v := pc.Snapshot()

	for _, entry := range v.Legend {
		for _, region := range entry.Regions {
			assert.Equal(t, entry.Swatch, v.Swatches[region], "region %s", region)
		}
	}
}

func TestFollowerDropsStaleRevisions(t *testing.T) {
	var buf bytes.Buffer
	f := NewFollower(&buf, NewLegendView())

	f.Observe(core.View{Revision: 2})
	f.Observe(core.View{Revision: 1})
	f.Observe(core.View{Revision: 2})
	f.Observe(core.View{Revision: 3})

	assert.Equal(t, 2, f.Frames())
	assert.Equal(t, 2, strings.Count(buf.String(), "no trace loaded"))
}

func TestFollowerObservesController(t *testing.T) {
	var buf bytes.Buffer
	mv, err := NewMapView(core.DefaultMap(), WithSize(36, 22))
	require.NoError(t, err)
	f := NewFollower(&buf, mv, NewLegendView())

	pc := loadedController(t)
	unsubscribe := pc.Subscribe(f.Observe)
	defer unsubscribe()

	pc.Next()
	pc.Next()
	assert.Equal(t, 2, f.Frames())
	assert.Contains(t, plain(buf.String()), "Step 3 of 3")
}
