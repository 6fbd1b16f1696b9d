package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the bindings that are not calculator keys.
type keyMap struct {
	ToggleHistory   key.Binding
	Up              key.Binding
	Down            key.Binding
	ReuseExpression key.Binding
	ReuseResult     key.Binding
	ClearHistory    key.Binding
	CloseHistory    key.Binding
	Quit            key.Binding

	historyOpen bool
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleHistory: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑/↓", "select"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
		),
		ReuseExpression: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "reuse expression"),
		),
		ReuseResult: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reuse result"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear history"),
		),
		CloseHistory: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	if k.historyOpen {
		return []key.Binding{k.Up, k.ReuseExpression, k.ReuseResult, k.ClearHistory, k.CloseHistory}
	}
	return []key.Binding{k.ToggleHistory, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
