package app

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings handled in handleKey.
type keyMap struct {
	Toggle       key.Binding
	Type         key.Binding
	Trends       key.Binding
	ExportCSV    key.Binding
	SaveText     key.Binding
	ExportSQLite key.Binding
	Clear        key.Binding
	Reset        key.Binding
	Up           key.Binding
	Down         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "Listen")),
		Type:         key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "Type")),
		Trends:       key.NewBinding(key.WithKeys("t", "T"), key.WithHelp("t", "Trends")),
		ExportCSV:    key.NewBinding(key.WithKeys("e", "E"), key.WithHelp("e", "CSV")),
		SaveText:     key.NewBinding(key.WithKeys("s", "S"), key.WithHelp("s", "Save")),
		ExportSQLite: key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("d", "SQLite")),
		Clear:        key.NewBinding(key.WithKeys("c", "C"), key.WithHelp("c", "Clear")),
		Reset:        key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "Reset")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "Scroll")),
		Down:         key.NewBinding(key.WithKeys("down", "j")),
		Quit:         key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "Quit")),
	}
}

// footerBindings lists the bindings shown in the footer, in order.
func (k keyMap) footerBindings() []key.Binding {
	return []key.Binding{
		k.Toggle, k.Type, k.Trends, k.ExportCSV, k.SaveText,
		k.ExportSQLite, k.Clear, k.Reset, k.Up, k.Quit,
	}
}
