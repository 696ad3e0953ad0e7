package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every key binding of the UI.
type KeyMap struct {
	Quit    key.Binding
	Cancel  key.Binding
	Command key.Binding
	Sync    key.Binding

	NextPage key.Binding
	PrevPage key.Binding
	NextGame key.Binding
	PrevGame key.Binding
	Setup    key.Binding
	Delete   key.Binding
	Accept   key.Binding
	Reject   key.Binding

	Confirm key.Binding
	Discard key.Binding
	White   key.Binding
	Black   key.Binding

	FromStart   key.Binding
	FromDiagram key.Binding

	Move     key.Binding
	Undo     key.Binding
	MoveText key.Binding

	Back       key.Binding
	Forward    key.Binding
	Start      key.Binding
	End        key.Binding
	NextVar    key.Binding
	PrevVar    key.Binding
	DeleteNode key.Binding
	Promote    key.Binding
	Comment    key.Binding
	CopyPGN    key.Binding
	Close      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "Q"), key.WithHelp("Q", "quit")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Command: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Sync:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "board sync")),

		NextPage: key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←", "prev page")),
		NextGame: key.NewBinding(key.WithKeys("tab", "j"), key.WithHelp("tab", "next game")),
		PrevGame: key.NewBinding(key.WithKeys("shift+tab", "k"), key.WithHelp("shift+tab", "prev game")),
		Setup:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze")),
		Delete:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete game")),
		Accept:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "link")),
		Reject:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "ignore")),

		Confirm: key.NewBinding(key.WithKeys("enter", "y"), key.WithHelp("enter", "confirm")),
		Discard: key.NewBinding(key.WithKeys("d", "backspace"), key.WithHelp("d", "discard")),
		White:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w/b", "side to move")),
		Black:   key.NewBinding(key.WithKeys("b")),

		FromStart:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "from start")),
		FromDiagram: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "from diagram")),

		Move:     key.NewBinding(key.WithKeys("m", "enter"), key.WithHelp("m", "move")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		MoveText: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "read moves")),

		Back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "move")),
		Forward:    key.NewBinding(key.WithKeys("right", "l")),
		Start:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/G", "start/end")),
		End:        key.NewBinding(key.WithKeys("end", "G")),
		NextVar:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↑/↓", "variation")),
		PrevVar:    key.NewBinding(key.WithKeys("up", "k")),
		DeleteNode: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete move")),
		Promote:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "promote")),
		Comment:    key.NewBinding(key.WithKeys(";"), key.WithHelp(";", "comment")),
		CopyPGN:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy PGN")),
		Close:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "close")),
	}
}
