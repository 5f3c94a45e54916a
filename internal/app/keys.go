package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the panel.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Tab      key.Binding
	Obstacle key.Binding
	Remove   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Example  key.Binding
	Clear    key.Binding
	Create   key.Binding
	Refresh  key.Binding
	Run      key.Binding
	NextSeq  key.Binding
	PrevSeq  key.Binding
	Longer   key.Binding
	Shorter  key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev step"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next step"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev move"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next move"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send move / add step"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "monitor / demo"),
		),
		Obstacle: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "random obstacle"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove step"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "step up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "step down"),
		),
		Example: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "example program"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear steps"),
		),
		Create: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "create demo"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh demos"),
		),
		Run: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "run selected"),
		),
		NextSeq: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next sequence"),
		),
		PrevSeq: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev sequence"),
		),
		Longer: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "longer step"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "shorter step"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
