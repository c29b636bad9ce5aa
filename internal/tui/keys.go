package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings shown in the help footer.
type keyMap struct {
	Exit      key.Binding
	Enter     key.Binding
	Pause     key.Binding
	Faster    key.Binding
	Slower    key.Binding
	MoreGroup key.Binding
	LessGroup key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Exit: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "leave scene"),
		),
		Enter: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "re-enter scene"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause rhythm"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "tempo up"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "tempo down"),
		),
		MoreGroup: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "more groups on re-entry"),
		),
		LessGroup: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "fewer groups on re-entry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Exit, k.Enter, k.Pause, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Exit, k.Enter, k.Pause},
		{k.Faster, k.Slower},
		{k.MoreGroup, k.LessGroup},
		{k.Help, k.Quit},
	}
}
