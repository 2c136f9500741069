// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextFile key.Binding
	PrevFile key.Binding

	// File display
	ToggleCollapse key.Binding
	ToggleFull     key.Binding
	CollapseAll    key.Binding
	ExpandAll      key.Binding

	// Views
	ModeUncommitted key.Binding
	ModeCommit      key.Binding
	ModeFull        key.Binding
	ToggleSplit     key.Binding
	ToggleFileList  key.Binding

	// Actions
	Refresh  key.Binding
	GoToFile key.Binding
	Yank     key.Binding
	Pin      key.Binding

	// General
	ToggleLog key.Binding
	Help      key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		NextFile: key.NewBinding(
			key.WithKeys("]", "n"),
			key.WithHelp("]", "next file"),
		),
		PrevFile: key.NewBinding(
			key.WithKeys("[", "N"),
			key.WithHelp("[", "previous file"),
		),

		// File display
		ToggleCollapse: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "collapse/expand file"),
		),
		ToggleFull: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "changes only/full file"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "collapse all"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "expand all"),
		),

		// Views
		ModeUncommitted: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "uncommitted changes"),
		),
		ModeCommit: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "pick a commit"),
		),
		ModeFull: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "full branch diff"),
		),
		ToggleSplit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "unified/split layout"),
		),
		ToggleFileList: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "file list"),
		),

		// Actions
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh diff"),
		),
		GoToFile: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "go to file"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy selection"),
		),
		Pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin file"),
		),

		// General
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "debug log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the compact footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleCollapse, k.ExpandAll, k.GoToFile, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped in columns for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.NextFile, k.PrevFile},
		{k.ToggleCollapse, k.ToggleFull, k.CollapseAll, k.ExpandAll},
		{k.ModeUncommitted, k.ModeCommit, k.ModeFull, k.ToggleSplit, k.ToggleFileList},
		{k.Refresh, k.GoToFile, k.Yank, k.Pin, k.ToggleLog, k.Help, k.Escape, k.Quit},
	}
}
