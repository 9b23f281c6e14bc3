package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/signalsfoundry/colortrace/core"
)

// Run shows the playback screen until the user quits or ctx ends.
// Controller changes reach the program through a subscription, so timed
// ticks redraw the screen without polling.
func Run(ctx context.Context, player *core.PlaybackController, opts ...Option) error {
	m := NewModel(player, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := player.Subscribe(func(v core.View) {
		p.Send(ViewMsg{View: v})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
