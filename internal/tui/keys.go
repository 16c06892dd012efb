package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap 定义全局快捷键绑定
// KeyMap defines global keybindings
type KeyMap struct {
	SwitchFocus key.Binding
	Quit        key.Binding
	Submit      key.Binding
	Refresh     key.Binding
	CardUp      key.Binding
	CardDown    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

// DefaultKeyMap 默认快捷键
// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch focus"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh board"),
		),
		CardUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous task"),
		),
		CardDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next task"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll chat up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll chat down"),
		),
	}
}
