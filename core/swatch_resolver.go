package core

import (
	"sort"

	"github.com/signalsfoundry/colortrace/model"
)

// Swatch is the visual color rendered for a color label.
type Swatch struct {
	Name string
	Hex  string
}

// Palette is a finite, ordered list of swatches.
type Palette []Swatch

// Uncolored is the fill used for regions without an assignment.
var Uncolored = Swatch{Name: "uncolored", Hex: "#F8FAFC"}

// DefaultPalette returns the map palette of the original teaching app.
func DefaultPalette() Palette {
	return Palette{
		{Name: "red", Hex: "#FF6B6B"},
		{Name: "turquoise", Hex: "#4ECDC4"},
		{Name: "blue", Hex: "#45B7D1"},
		{Name: "green", Hex: "#96CEB4"},
		{Name: "yellow", Hex: "#FFEAA7"},
		{Name: "violet", Hex: "#DDA0DD"},
	}
}

// SwatchFor resolves a swatch for region from a single coloring, with no
// history. Distinct labels are ranked in sorted order, so equal labels
// always share a swatch and different labels never collide while the
// palette has at least as many entries as distinct labels in use. Beyond
// that the rank wraps modulo the palette length: a known visual collision,
// not a coloring error. The second result is false when the region is
// uncolored or the palette is empty.
//
// Use a SwatchResolver when rendering a trace: it keeps a label's swatch
// fixed for as long as the label stays in use.
func SwatchFor(coloring model.Coloring, region string, palette Palette) (Swatch, bool) {
	label, ok := coloring[region]
	if !ok || len(palette) == 0 {
		return Swatch{}, false
	}
	labels := coloring.Labels()
	rank := sort.SearchStrings(labels, label)
	return palette[rank%len(palette)], true
}

// LegendEntry groups the regions currently painted with one swatch.
type LegendEntry struct {
	Label   string
	Swatch  Swatch
	Regions []string
}

// SwatchResolver assigns swatches by label identity across a whole trace.
//
// Slots are computed once, walking the immutable trace in order: a label
// keeps its slot while it remains in the coloring, a newly used label takes
// the lowest free slot, and a label that drops out releases its slot (so a
// region re-colored after a backtrack may land on a different swatch). When
// every slot is taken the new label wraps to (live label count) modulo the
// palette length. Once the labels in use fit the palette again, a label
// sharing a slot with an earlier holder moves to the lowest free slot. Lookups are O(1) for any index, so seeking backwards or
// forwards always yields the same answer as playing through.
type SwatchResolver struct {
	trace   *Trace
	palette Palette
	slots   []map[string]int
}

// NewSwatchResolver precomputes slot tables for t. An empty palette falls
// back to DefaultPalette.
func NewSwatchResolver(t *Trace, palette Palette) *SwatchResolver {
	if len(palette) == 0 {
		palette = DefaultPalette()
	}
	r := &SwatchResolver{
		trace:   t,
		palette: append(Palette(nil), palette...),
	}
	if t == nil {
		return r
	}

	r.slots = make([]map[string]int, len(t.steps))
	live := make(map[string]int)
	since := make(map[string]int)
	for i, step := range t.steps {
		labels := step.CurrentState.Labels()
		inUse := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			inUse[l] = struct{}{}
		}
		for l := range live {
			if _, ok := inUse[l]; !ok {
				delete(live, l)
			}
		}

		taken := make(map[int]int, len(live))
		for _, slot := range live {
			taken[slot]++
		}
		if len(labels) <= len(r.palette) && len(taken) < len(live) {
			separateShared(live, since, taken, len(r.palette))
		}
		for _, l := range labels {
			if _, ok := live[l]; ok {
				continue
			}
			slot := lowestFreeSlot(taken, len(r.palette))
			if slot < 0 {
				slot = len(live) % len(r.palette)
			}
			live[l] = slot
			since[l] = i
			taken[slot]++
		}
		for l := range since {
			if _, ok := live[l]; !ok {
				delete(since, l)
			}
		}

		snapshot := make(map[string]int, len(live))
		for l, s := range live {
			snapshot[l] = s
		}
		r.slots[i] = snapshot
	}
	return r
}

// separateShared keeps the earliest holder of each slot in place and moves
// every later holder to the lowest free slot. The caller guarantees a free
// slot exists for each move.
func separateShared(live, since map[string]int, taken map[int]int, n int) {
	holders := make([]string, 0, len(live))
	for l := range live {
		holders = append(holders, l)
	}
	sort.Slice(holders, func(i, j int) bool {
		a, b := holders[i], holders[j]
		if since[a] != since[b] {
			return since[a] < since[b]
		}
		return a < b
	})

	owned := make(map[int]bool, len(holders))
	for _, l := range holders {
		slot := live[l]
		if !owned[slot] {
			owned[slot] = true
			continue
		}
		taken[slot]--
		free := lowestFreeSlot(taken, n)
		live[l] = free
		taken[free]++
		owned[free] = true
	}
}

func lowestFreeSlot(taken map[int]int, n int) int {
	for s := 0; s < n; s++ {
		if taken[s] == 0 {
			return s
		}
	}
	return -1
}

// Palette returns the palette in use.
func (r *SwatchResolver) Palette() Palette { return append(Palette(nil), r.palette...) }

// LabelSwatch returns the swatch bound to label at step index, if the label
// is in use there.
func (r *SwatchResolver) LabelSwatch(index int, label string) (Swatch, bool) {
	if index < 0 || index >= len(r.slots) {
		return Swatch{}, false
	}
	slot, ok := r.slots[index][label]
	if !ok {
		return Swatch{}, false
	}
	return r.palette[slot], true
}

// SwatchAt returns the swatch of region at step index; false when the
// region is uncolored there or index is out of range.
func (r *SwatchResolver) SwatchAt(index int, region string) (Swatch, bool) {
	if r.trace == nil || index < 0 || index >= len(r.slots) {
		return Swatch{}, false
	}
	label, ok := r.trace.steps[index].CurrentState[region]
	if !ok {
		return Swatch{}, false
	}
	return r.LabelSwatch(index, label)
}

// Swatches maps every colored region at step index to its swatch.
func (r *SwatchResolver) Swatches(index int) map[string]Swatch {
	out := make(map[string]Swatch)
	if r.trace == nil || index < 0 || index >= len(r.slots) {
		return out
	}
	for region, label := range r.trace.steps[index].CurrentState {
		out[region] = r.palette[r.slots[index][label]]
	}
	return out
}

// Legend lists the labels in use at step index with their swatches and
// regions, sorted by label.
func (r *SwatchResolver) Legend(index int) []LegendEntry {
	if r.trace == nil || index < 0 || index >= len(r.slots) {
		return nil
	}
	coloring := r.trace.steps[index].CurrentState
	byLabel := make(map[string][]string)
	for _, region := range coloring.Regions() {
		label := coloring[region]
		byLabel[label] = append(byLabel[label], region)
	}
	out := make([]LegendEntry, 0, len(byLabel))
	for _, label := range coloring.Labels() {
		out = append(out, LegendEntry{
			Label:   label,
			Swatch:  r.palette[r.slots[index][label]],
			Regions: byLabel[label],
		})
	}
	return out
}
