// Package keymap holds the key bindings of the progress view.
package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap satisfies help.KeyMap so the bindings render as the view's footer.
type KeyMap struct {
	Detach key.Binding
	Cancel key.Binding
}

// DefaultKeyMap binds q/esc to detach and c/ctrl+c to cancel the job.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Detach: key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "detach")),
		Cancel: key.NewBinding(key.WithKeys("c", "ctrl+c"), key.WithHelp("c", "cancel job")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Detach, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
