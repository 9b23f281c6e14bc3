// Package tui is the interactive terminal front end. It observes a
// playback controller and turns key presses into transport commands.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/view"
)

// Player is the part of the playback controller the UI drives.
type Player interface {
	Snapshot() core.View
	Trace() *core.Trace
	TogglePlay()
	Next()
	Prev()
	First()
	Last()
	Reset()
	Speed() time.Duration
	SetSpeed(time.Duration)
}

// SolveFunc requests and loads a new trace.
type SolveFunc func(ctx context.Context) error

// ViewMsg delivers a controller snapshot to the program.
type ViewMsg struct {
	View core.View
}

// SolveDoneMsg reports the outcome of a solve started from the UI.
type SolveDoneMsg struct {
	Err error
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the bubbletea model for the playback screen.
type Model struct {
	player Player
	solve  SolveFunc
	title  string

	mapView  *view.MapView
	mapGraph *core.RegionGraph
	legend   *view.LegendView

	keys     keyMap
	help     help.Model
	progress progress.Model

	view    core.View
	seen    bool
	solving bool
	status  string
	err     error

	width    int
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithSolve enables the "solve again" key.
func WithSolve(fn SolveFunc) Option {
	return func(m *Model) { m.solve = fn }
}

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}

// NewModel builds a model around player.
func NewModel(player Player, opts ...Option) Model {
	m := Model{
		player:   player,
		title:    "colortrace",
		legend:   view.NewLegendView(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.apply(player.Snapshot())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = max(10, msg.Width-4)
		return m, nil

	case ViewMsg:
		m.apply(msg.View)
		return m, nil

	case SolveDoneMsg:
		m.solving = false
		m.err = msg.Err
		if msg.Err == nil {
			m.status = "new trace loaded"
		} else {
			m.status = ""
		}
		m.apply(m.player.Snapshot())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.TogglePlay):
		m.player.TogglePlay()
	case key.Matches(msg, m.keys.Next):
		m.player.Next()
	case key.Matches(msg, m.keys.Prev):
		m.player.Prev()
	case key.Matches(msg, m.keys.First):
		m.player.First()
	case key.Matches(msg, m.keys.Last):
		m.player.Last()
	case key.Matches(msg, m.keys.Reset):
		m.player.Reset()
	case key.Matches(msg, m.keys.Faster):
		m.player.SetSpeed(nextPreset(m.player.Speed(), true))
	case key.Matches(msg, m.keys.Slower):
		m.player.SetSpeed(nextPreset(m.player.Speed(), false))
	case key.Matches(msg, m.keys.Solve):
		if m.solve == nil || m.solving {
			return m, nil
		}
		m.solving = true
		m.err = nil
		m.status = "solving..."
		return m, solveCmd(m.solve)
	default:
		return m, nil
	}
	m.apply(m.player.Snapshot())
	return m, nil
}

func solveCmd(fn SolveFunc) tea.Cmd {
	return func() tea.Msg {
		return SolveDoneMsg{Err: fn(context.Background())}
	}
}

// apply stores v unless a newer snapshot was already applied, and rebuilds
// the map when the trace was validated against a different graph.
func (m *Model) apply(v core.View) {
	if m.seen && v.Revision < m.view.Revision {
		return
	}
	m.view = v
	m.seen = true

	t := m.player.Trace()
	if t == nil || t.Graph() == m.mapGraph {
		return
	}
	mv, err := view.NewMapView(t.Graph())
	if err != nil {
		m.err = err
		m.mapView = nil
	} else {
		m.mapView = mv
	}
	m.mapGraph = t.Graph()
}

// nextPreset returns the neighbouring preset speed. Presets run slowest
// first, so faster means a shorter period.
func nextPreset(current time.Duration, faster bool) time.Duration {
	presets := core.SpeedPresets
	if faster {
		for _, p := range presets {
			if p < current {
				return p
			}
		}
		return presets[len(presets)-1]
	}
	for i := len(presets) - 1; i >= 0; i-- {
		if presets[i] > current {
			return presets[i]
		}
	}
	return presets[0]
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := headerStyle.Render(m.title)
	if name := m.graphName(); name != "" {
		header += statusStyle.Render("  map " + name)
	}

	var mapPanel string
	if m.mapView != nil {
		mapPanel = panelStyle.Render(m.mapView.Render(m.view))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, panelStyle.Render(m.legend.Render(m.view)))

	status := m.status
	if m.err != nil {
		status = errorStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.progress.ViewAs(m.view.Progress()),
		statusStyle.Render(fmt.Sprintf("%s  %s", m.view.State, status)),
		m.help.View(m.keys),
	)
}

func (m Model) graphName() string {
	if m.mapGraph == nil {
		return ""
	}
	return m.mapGraph.Name()
}

// CurrentView returns the last snapshot the model applied.
func (m Model) CurrentView() core.View { return m.view }
