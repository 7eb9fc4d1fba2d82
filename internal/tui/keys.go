package tui

import "github.com/charmbracelet/bubbles/key"

// StandardKeys defines common key bindings used across TUI components.
type StandardKeys struct {
	Quit   key.Binding
	Select key.Binding
	Back   key.Binding
	Help   key.Binding
}

// NewStandardKeys creates a standard set of key bindings.
func NewStandardKeys() StandardKeys {
	return StandardKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// TableKeys are the bindings of the books table.
type TableKeys struct {
	StandardKeys
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	PageSize  key.Binding
	Sort      key.Binding
	Mode      key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Borrow    key.Binding
	Summary   key.Binding
	Refresh   key.Binding
}

// NewTableKeys creates key bindings for the books table.
func NewTableKeys() TableKeys {
	return TableKeys{
		StandardKeys: NewStandardKeys(),
		NextPage:     key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→", "next page")),
		PrevPage:     key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←", "prev page")),
		FirstPage:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
		LastPage:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
		PageSize:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
		Sort:         key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "sort column")),
		Mode:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "server/client")),
		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Borrow:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "borrow")),
		Summary:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "summary")),
		Refresh:      key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
	}
}

// ShortHelp returns a slice of key bindings for the short help view.
func (k TableKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.PrevPage, k.NextPage, k.Sort, k.Add, k.Delete, k.Quit}
}

// FullHelp returns the grouped bindings for the expanded help view.
func (k TableKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Add, k.Edit, k.Delete, k.Borrow},
		{k.PrevPage, k.NextPage, k.FirstPage, k.LastPage, k.PageSize},
		{k.Sort, k.Mode, k.Summary, k.Refresh},
		{k.Help, k.Quit},
	}
}

// FormKeys are the bindings shared by the book and borrow forms.
type FormKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

// NewFormKeys creates form bindings; submitLabel names the action on ctrl+s.
func NewFormKeys(submitLabel string) FormKeys {
	return FormKeys{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", submitLabel)),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Footer returns the bindings shown under a form.
func (k FormKeys) Footer() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Cancel}
}
