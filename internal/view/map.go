// Package view renders playback snapshots for the terminal. Renderers only
// read core.View values; they never touch the trace or the controller.
package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/model"
)

// Renderer turns one snapshot into printable text.
type Renderer interface {
	Render(v core.View) string
}

const (
	DefaultMapWidth  = 64
	DefaultMapHeight = 22
)

// selectedFill marks the cells of the region the current step acts on.
const selectedFill = "░"

// MapView paints region outlines onto a character grid. Each cell takes the
// region whose outline contains the cell centre; later regions are painted
// over earlier ones, as in SVG. Regions without a shape are listed below
// the map instead.
type MapView struct {
	graph    *core.RegionGraph
	width    int
	height   int
	cells    [][]string // region id per cell, "" outside every outline
	labels   map[[2]int]string
	unplaced []string
}

// MapOption configures a MapView.
type MapOption func(*MapView)

// WithSize sets the grid size in terminal cells.
func WithSize(width, height int) MapOption {
	return func(m *MapView) {
		if width > 0 {
			m.width = width
		}
		if height > 0 {
			m.height = height
		}
	}
}

// NewMapView rasterises graph once; rendering a view is then a lookup per
// cell. It fails when a region shape cannot be parsed.
func NewMapView(graph *core.RegionGraph, opts ...MapOption) (*MapView, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: map view needs a graph", core.ErrGraph)
	}
	m := &MapView{
		graph:  graph,
		width:  DefaultMapWidth,
		height: DefaultMapHeight,
		labels: make(map[[2]int]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.rasterise(); err != nil {
		return nil, err
	}
	return m, nil
}

// Graph returns the graph the view was built for.
func (m *MapView) Graph() *core.RegionGraph { return m.graph }

type shapedRegion struct {
	id     string
	polys  []polygon
	anchor model.Point
}

func (m *MapView) rasterise() error {
	var shaped []shapedRegion
	for _, r := range m.graph.Regions() {
		if !r.HasShape() {
			m.unplaced = append(m.unplaced, r.ID)
			continue
		}
		polys, err := parsePath(r.Shape)
		if err != nil {
			return fmt.Errorf("%w: region %q: %v", core.ErrGraph, r.ID, err)
		}
		if len(polys) == 0 {
			m.unplaced = append(m.unplaced, r.ID)
			continue
		}
		anchor := r.Anchor
		if anchor == (model.Point{}) {
			anchor = polys[0].centroid()
		}
		shaped = append(shaped, shapedRegion{id: r.ID, polys: polys, anchor: anchor})
	}

	m.cells = make([][]string, m.height)
	for y := range m.cells {
		m.cells[y] = make([]string, m.width)
	}
	if len(shaped) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range shaped {
		for _, poly := range s.polys {
			for _, p := range poly {
				minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
				minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
			}
		}
	}
	stepX := (maxX - minX) / float64(m.width)
	stepY := (maxY - minY) / float64(m.height)
	if stepX == 0 || stepY == 0 {
		return fmt.Errorf("%w: region shapes have no area", core.ErrGraph)
	}

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			p := model.Point{X: minX + (float64(x)+0.5)*stepX, Y: minY + (float64(y)+0.5)*stepY}
			m.cells[y][x] = regionAt(shaped, p)
		}
	}

	for _, s := range shaped {
		x := clamp(int((s.anchor.X-minX)/stepX), 0, max(0, m.width-len([]rune(s.id))))
		y := clamp(int((s.anchor.Y-minY)/stepY), 0, m.height-1)
		if m.cells[y][x] != s.id {
			// The anchor may fall under a region painted on top; move the
			// label to the nearest visible cell of its own region.
			x, y = m.nearestCell(s.id, x, y)
		}
		m.labels[[2]int{x, y}] = s.id
	}
	return nil
}

func (m *MapView) nearestCell(id string, x0, y0 int) (int, int) {
	bestX, bestY, best := x0, y0, math.MaxInt
	for y, row := range m.cells {
		for x, cell := range row {
			if cell != id {
				continue
			}
			if d := (x-x0)*(x-x0) + (y-y0)*(y-y0); d < best {
				bestX, bestY, best = x, y, d
			}
		}
	}
	return bestX, bestY
}

func regionAt(shaped []shapedRegion, p model.Point) string {
	for i := len(shaped) - 1; i >= 0; i-- {
		for _, poly := range shaped[i].polys {
			if poly.contains(p) {
				return shaped[i].id
			}
		}
	}
	return ""
}

// RegionAtCell returns the region painted at grid cell (x, y).
func (m *MapView) RegionAtCell(x, y int) (string, bool) {
	if y < 0 || y >= len(m.cells) || x < 0 || x >= len(m.cells[y]) {
		return "", false
	}
	id := m.cells[y][x]
	return id, id != ""
}

// Unplaced returns the regions that have no outline to draw.
func (m *MapView) Unplaced() []string { return append([]string(nil), m.unplaced...) }

// Render paints v. Colored regions use the swatch carried by the view;
// uncolored regions use core.Uncolored.
func (m *MapView) Render(v core.View) string {
	var b strings.Builder
	for y, row := range m.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < len(row); {
			id := row[x]
			label, hasLabel := m.labels[[2]int{x, y}]
			if hasLabel {
				b.WriteString(m.cellStyle(v, id).Bold(true).Render(label))
				x += len([]rune(label))
				continue
			}
			// Extend the run while the region stays the same and no label
			// interrupts it.
			end := x + 1
			for end < len(row) && row[end] == id {
				if _, ok := m.labels[[2]int{end, y}]; ok {
					break
				}
				end++
			}
			fill := " "
			if id != "" && id == v.SelectedRegion {
				fill = selectedFill
			}
			b.WriteString(m.cellStyle(v, id).Render(strings.Repeat(fill, end-x)))
			x = end
		}
	}

	if len(m.unplaced) > 0 {
		b.WriteString("\n")
		parts := make([]string, 0, len(m.unplaced))
		for _, id := range m.unplaced {
			parts = append(parts, m.cellStyle(v, id).Render(" "+id+" "))
		}
		b.WriteString(mutedStyle.Render("no outline: ") + strings.Join(parts, " "))
	}
	return b.String()
}

func (m *MapView) cellStyle(v core.View, id string) lipgloss.Style {
	if id == "" {
		return lipgloss.NewStyle()
	}
	sw := core.Uncolored
	if s, ok := v.Swatches[id]; ok {
		sw = s
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(sw.Hex)).
		Foreground(lipgloss.Color("#1E293B"))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
