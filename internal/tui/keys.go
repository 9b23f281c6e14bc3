package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	TogglePlay key.Binding
	Next       key.Binding
	Prev       key.Binding
	First      key.Binding
	Last       key.Binding
	Reset      key.Binding
	Faster     key.Binding
	Slower     key.Binding
	Solve      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		TogglePlay: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Next:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		First:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		Last:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Faster:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Solve:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "solve again")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePlay, k.Prev, k.Next, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePlay, k.Prev, k.Next, k.First, k.Last},
		{k.Reset, k.Faster, k.Slower, k.Solve},
		{k.Help, k.Quit},
	}
}
