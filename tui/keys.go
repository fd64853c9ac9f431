// ABOUTME: Key bindings for the board, detail and delete views
// ABOUTME: Implements help.KeyMap so the footer lists them
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"

	"github.com/harperreed/dealflow/engine"
)

type keyMap struct {
	Left         key.Binding
	Right        key.Binding
	Up           key.Binding
	Down         key.Binding
	MoveBack     key.Binding
	MoveForward  key.Binding
	Open         key.Binding
	Back         key.Binding
	Delete       key.Binding
	Confirm      key.Binding
	NextPipeline key.Binding
	Refresh      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev stage")),
		Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next stage")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveBack:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move deal back")),
		MoveForward:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move deal forward")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Delete:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Confirm:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		NextPipeline: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pipeline")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveBack, k.MoveForward, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.MoveBack, k.MoveForward, k.Open, k.Back},
		{k.Delete, k.NextPipeline, k.Refresh, k.Help, k.Quit},
	}
}

func isTransport(err error) bool {
	return errors.Is(err, engine.ErrTransport)
}
