package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Attach   key.Binding
	New      key.Binding
	Kill     key.Binding
	Refresh  key.Binding
	Yank     key.Binding
	Settings key.Binding
	Filter   key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Attach:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "attach")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Kill:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Yank:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy attach")),
		Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Back:     key.NewBinding(key.WithKeys("esc", "left", "h"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// shortHelp is the footer for the dashboard.
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Attach, k.New, k.Kill, k.Filter, k.Settings, k.Refresh, k.Quit}
}

func renderHelp(bindings []key.Binding) string {
	var out string
	for i, b := range bindings {
		if i > 0 {
			out += MenuDescStyle.Render("   ")
		}
		h := b.Help()
		out += MenuKeyStyle.Render(h.Key) + MenuDescStyle.Render(" "+h.Desc)
	}
	return out
}
