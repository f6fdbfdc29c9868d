package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the pipeline viewer.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Variables key.Binding
	Draw      key.Binding
	Refresh   key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

// DefaultKeyMap uses vim-style navigation alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "toggle job"),
	),
	Variables: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "variables"),
	),
	Draw: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "write dot"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Variables, k.Draw, k.Refresh, k.Reset, k.Quit}
}
