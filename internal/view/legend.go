package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	stepTypeStyles = map[model.StepType]lipgloss.Style{
		model.StepAssign:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		model.StepConflict:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		model.StepBacktrack: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
)

// LegendView describes the current step and lists the labels in use with
// their swatches. It reads the same swatches as MapView, so a label looks
// identical in both.
type LegendView struct{}

// NewLegendView returns a step/legend renderer.
func NewLegendView() *LegendView { return &LegendView{} }

// Render describes v.
func (l *LegendView) Render(v core.View) string {
	if !v.HasTrace() {
		return mutedStyle.Render("no trace loaded")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Step %d of %d", v.CurrentStepIndex+1, v.TotalSteps)))
	b.WriteString("  ")
	b.WriteString(stepTypeLabel(v.StepType))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Region %s, color tried: %s\n", v.SelectedRegion, swatchChip(v, v.Color))
	if v.BacktrackReason != "" {
		b.WriteString(reasonStyle.Render("Reason: " + v.BacktrackReason))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Current coloring"))
	b.WriteString("\n")
	if len(v.Legend) == 0 {
		b.WriteString(mutedStyle.Render("no regions colored"))
		b.WriteString("\n")
	}
	for _, entry := range v.Legend {
		fmt.Fprintf(&b, "%s %s: %s\n",
			chip(entry.Swatch),
			entry.Label,
			strings.Join(entry.Regions, ", "),
		)
	}

	if v.AtEnd() {
		b.WriteString("\n")
		if v.Success {
			b.WriteString(successStyle.Render("Solution found"))
			b.WriteString("  ")
			b.WriteString(formatColoring(v.FinalColoring))
		} else {
			b.WriteString(failureStyle.Render("No solution with these colors"))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s", mutedStyle.Render(fmt.Sprintf("%s · %s per step · %d backtracks",
		v.State, v.Speed, v.Backtracks)))
	return b.String()
}

func stepTypeLabel(t model.StepType) string {
	style, ok := stepTypeStyles[t]
	if !ok {
		return strings.ToUpper(string(t))
	}
	return style.Render(strings.ToUpper(string(t)))
}

// swatchChip renders label with the swatch it holds in this view. A label
// tried in a conflict step may not be in use anywhere yet; it is shown
// without a chip.
func swatchChip(v core.View, label string) string {
	for _, entry := range v.Legend {
		if entry.Label == label {
			return chip(entry.Swatch) + " " + label
		}
	}
	return label
}

func chip(sw core.Swatch) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(sw.Hex)).Render("██")
}

func formatColoring(c model.Coloring) string {
	parts := make([]string, 0, len(c))
	for _, region := range c.Regions() {
		parts = append(parts, region+"="+c[region])
	}
	return strings.Join(parts, " ")
}
