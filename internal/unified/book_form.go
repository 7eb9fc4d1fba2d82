package unified

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/detail"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Notification titles of the form views.
const (
	titleCreated   = "Book added"
	titleUpdated   = "Book updated"
	titleUnchanged = "No changes"
	titleBorrowed  = "Book borrowed"
)

type bookSeededMsg struct {
	book catalog.Book
	err  error
}

type bookSubmittedMsg struct {
	res detail.Result
	err error
}

// BookFormModel is the add and edit form.
type BookFormModel struct {
	deps   Deps
	id     string // empty when creating
	edit   *detail.EditSession
	create *detail.CreateSession

	form       tui.Form
	keys       tui.FormKeys
	loading    bool
	submitting bool
	err        string
	width      int
	height     int
}

func bookFields() []tui.Field {
	genres := make([]string, len(catalog.Genres))
	for i, g := range catalog.Genres {
		genres[i] = string(g)
	}
	return []tui.Field{
		{Key: "title", Label: "Title", Placeholder: "Book title"},
		{Key: "author", Label: "Author", Placeholder: "Author name", CharLimit: 100},
		{Key: "genre", Label: "Genre", Choices: genres},
		{Key: "isbn", Label: "ISBN", Placeholder: "978...", CharLimit: 20, Width: 20},
		{Key: "description", Label: "Description", Placeholder: "optional", CharLimit: 1000},
		{Key: "copies", Label: "Copies", Placeholder: "1", CharLimit: 6, Width: 8},
	}
}

// NewCreateModel creates the add-book form.
func NewCreateModel(deps Deps) BookFormModel {
	m := BookFormModel{
		deps:   deps,
		create: detail.NewCreateSession(deps.Query, deps.logger()),
		form:   tui.NewForm(bookFields()...),
		keys:   tui.NewFormKeys("save"),
	}
	setBookForm(&m.form, m.create.Form())
	return m
}

// NewEditModel creates the edit form for book id. The form is filled once
// the book loads.
func NewEditModel(deps Deps, id string) BookFormModel {
	return BookFormModel{
		deps:    deps,
		id:      id,
		edit:    detail.NewEditSession(deps.Query, deps.logger()),
		form:    tui.NewForm(bookFields()...),
		keys:    tui.NewFormKeys("save"),
		loading: true,
	}
}

func setBookForm(f *tui.Form, v catalog.BookForm) {
	f.SetValue("title", v.Title)
	f.SetValue("author", v.Author)
	f.SetValue("genre", v.Genre)
	f.SetValue("isbn", v.ISBN)
	f.SetValue("description", v.Description)
	f.SetValue("copies", v.Copies)
}

func readBookForm(f tui.Form) catalog.BookForm {
	return catalog.BookForm{
		Title:       f.Value("title"),
		Author:      f.Value("author"),
		Genre:       f.Value("genre"),
		ISBN:        f.Value("isbn"),
		Description: f.Value("description"),
		Copies:      f.Value("copies"),
	}
}

// Init loads the edited book.
func (m BookFormModel) Init() tea.Cmd {
	if m.edit == nil {
		return m.form.Init()
	}
	q, deps, id := m.deps.Query, m.deps, m.id
	return tea.Batch(m.form.Init(), func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		b, err := q.Book(ctx, id)
		return bookSeededMsg{book: b, err: err}
	})
}

func (m BookFormModel) submit() tea.Cmd {
	form := readBookForm(m.form)
	deps, edit, create := m.deps, m.edit, m.create
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		var res detail.Result
		var err error
		if edit != nil {
			res, err = edit.Submit(ctx, form)
		} else {
			res, err = create.Submit(ctx, form)
		}
		return bookSubmittedMsg{res: res, err: err}
	}
}

// Update handles messages for the form view
func (m BookFormModel) Update(msg tea.Msg) (BookFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case bookSeededMsg:
		m.loading = false
		if msg.err != nil {
			m.err = api.Message(msg.err, api.DefaultErrorMessage)
			return m, nil
		}
		if m.edit.Seed(msg.book) {
			setBookForm(&m.form, m.edit.Form())
		}
		return m, nil

	case bookSubmittedMsg:
		m.submitting = false
		return m.submitted(msg)

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return m, quit
		case key.Matches(msg, m.keys.Cancel):
			return m, m.back()
		case key.Matches(msg, m.keys.Submit):
			return m.trySubmit()
		case msg.String() == "enter":
			if m.form.Focused() == "copies" {
				return m.trySubmit()
			}
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(tea.KeyMsg{Type: tea.KeyTab})
			return m, cmd
		}
	}

	if m.loading || m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m BookFormModel) trySubmit() (BookFormModel, tea.Cmd) {
	if m.loading || m.submitting {
		return m, nil
	}
	m.submitting = true
	m.err = ""
	return m, m.submit()
}

func (m BookFormModel) back() tea.Cmd {
	if m.id != "" {
		return navigate(ViewDetail, m.id)
	}
	return navigate(ViewBooks, "")
}

func (m BookFormModel) submitted(msg bookSubmittedMsg) (BookFormModel, tea.Cmd) {
	var fe catalog.FieldErrors
	switch {
	case errors.As(msg.err, &fe):
		m.form.SetErrors(fe)
		return m, nil
	case msg.err != nil:
		m.err = api.Message(msg.err, api.DefaultErrorMessage)
		return m, nil
	}
	m.form.SetErrors(nil)

	n := mutation.Notification{Kind: mutation.Success}
	switch msg.res.Outcome {
	case detail.Unchanged:
		n.Title, n.Detail = titleUnchanged, "Nothing to save."
	case detail.Updated:
		n.Title = titleUpdated
		n.Book, n.BookID = msg.res.Book.Title, msg.res.Book.ID
		n.Detail = fmt.Sprintf("%q saved (%s).", msg.res.Book.Title, strings.Join(msg.res.Patch.Fields(), ", "))
	case detail.Created:
		n.Title = titleCreated
		n.Book, n.BookID = msg.res.Book.Title, msg.res.Book.ID
		n.Detail = fmt.Sprintf("%q is now in the library.", msg.res.Book.Title)
		return m, tea.Batch(notify(n), navigate(ViewDetail, msg.res.Book.ID))
	}
	return m, tea.Batch(notify(n), m.back())
}

// View renders the form view
func (m BookFormModel) View() string {
	title := "Add book"
	if m.edit != nil {
		title = "Edit book"
	}
	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render(title))
	b.WriteString("\n\n")
	if m.err != "" {
		b.WriteString(tui.StyleError.Render("Error: " + m.err))
		b.WriteString("\n\n")
	}
	switch {
	case m.loading:
		b.WriteString(tui.StyleHelp.Render("Loading..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.form.View())
	}
	if m.submitting {
		b.WriteString(tui.StyleHelp.Render("Saving..."))
		b.WriteString("\n")
	}
	return tui.RenderWithFooter(b.String(), "", m.keys.Footer()...)
}

func notify(n mutation.Notification) tea.Cmd {
	return func() tea.Msg { return notificationMsg{n: n} }
}
