package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Power    key.Binding
	Increase key.Binding
	Decrease key.Binding
	Cancel   key.Binding
	Reset    key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Toggle:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle or commit")),
	Power:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "power")),
	Increase: key.NewBinding(key.WithKeys("+", "=", "right", "l"), key.WithHelp("+", "raise limit")),
	Decrease: key.NewBinding(key.WithKeys("-", "left", "h"), key.WithHelp("-", "lower limit")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
}
