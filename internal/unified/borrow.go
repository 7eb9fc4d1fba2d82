package unified

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/borrowing"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type borrowedMsg struct {
	rec *catalog.BorrowRecord
	err error
}

type borrowBookMsg struct{ book catalog.Book }

// BorrowModel is the borrow form for one book.
type BorrowModel struct {
	deps Deps
	ctrl *borrowing.Controller

	bookID     string
	book       *catalog.Book
	form       tui.Form
	keys       tui.FormKeys
	submitting bool
	err        string
}

// NewBorrowModel creates a borrow form prefilled for bookID.
func NewBorrowModel(deps Deps, bookID string) BorrowModel {
	m := BorrowModel{
		deps:   deps,
		ctrl:   borrowing.NewController(deps.Query, deps.Now, deps.logger()),
		bookID: bookID,
		keys:   tui.NewFormKeys("borrow"),
		form: tui.NewForm(
			tui.Field{Key: "book", Label: "Book ID", CharLimit: 64},
			tui.Field{Key: "quantity", Label: "Quantity", Placeholder: "1", CharLimit: 6, Width: 8},
			tui.Field{Key: "dueDate", Label: "Due date", Placeholder: "YYYY-MM-DD", CharLimit: 25, Width: 26},
		),
	}
	def := borrowing.DefaultForm(bookID, deps.now())
	m.form.SetValue("book", def.BookID)
	m.form.SetValue("quantity", def.Quantity)
	m.form.SetValue("dueDate", def.DueDate)
	return m
}

// Init looks up the book title for the header.
func (m BorrowModel) Init() tea.Cmd {
	if m.bookID == "" {
		return m.form.Init()
	}
	q, deps, id := m.deps.Query, m.deps, m.bookID
	return tea.Batch(m.form.Init(), func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		b, err := q.Book(ctx, id)
		if err != nil {
			return nil
		}
		return borrowBookMsg{book: b}
	})
}

func (m BorrowModel) readForm() borrowing.Form {
	return borrowing.Form{
		BookID:   m.form.Value("book"),
		Quantity: m.form.Value("quantity"),
		DueDate:  m.form.Value("dueDate"),
	}
}

func (m BorrowModel) submit() tea.Cmd {
	ctrl, deps, f := m.ctrl, m.deps, m.readForm()
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		rec, err := ctrl.Borrow(ctx, f)
		return borrowedMsg{rec: rec, err: err}
	}
}

// Update handles messages for the borrow view
func (m BorrowModel) Update(msg tea.Msg) (BorrowModel, tea.Cmd) {
	switch msg := msg.(type) {
	case borrowBookMsg:
		m.book = &msg.book
		return m, nil

	case borrowedMsg:
		m.submitting = false
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
		return m, tea.Batch(notify(m.borrowedNotification(msg.rec)), navigate(ViewSummary, ""))

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return m, quit
		case key.Matches(msg, m.keys.Cancel):
			if m.bookID != "" {
				return m, navigate(ViewDetail, m.bookID)
			}
			return m, navigate(ViewBooks, "")
		case key.Matches(msg, m.keys.Submit):
			return m.trySubmit()
		case msg.String() == "enter":
			if m.form.Focused() == "dueDate" {
				return m.trySubmit()
			}
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(tea.KeyMsg{Type: tea.KeyTab})
			return m, cmd
		}
	}
	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m BorrowModel) trySubmit() (BorrowModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.err = ""
	return m, m.submit()
}

func (m BorrowModel) borrowedNotification(rec *catalog.BorrowRecord) mutation.Notification {
	n := mutation.Notification{Kind: mutation.Success, Title: titleBorrowed}
	if rec == nil {
		return n
	}
	name := rec.Book
	if m.book != nil && m.book.ID == rec.Book {
		name = m.book.Title
	}
	n.BookID, n.Book = rec.Book, name
	n.Detail = fmt.Sprintf("%s of %q, due %s.",
		util.Count(rec.Quantity, "copy", "copies"), name, util.DueIn(rec.DueDate, m.deps.now()))
	return n
}

// View renders the borrow view
func (m BorrowModel) View() string {
	var b strings.Builder
	header := "Borrow book"
	if m.book != nil {
		header += ": " + m.book.Title
	}
	b.WriteString(tui.StyleHeader.Render(header))
	b.WriteString("\n")
	if m.book != nil {
		b.WriteString(tui.StyleHelp.Render(fmt.Sprintf("%s on the shelf", util.Count(m.book.Copies, "copy", "copies"))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(tui.StyleError.Render("Error: " + m.err))
		b.WriteString("\n\n")
	}
	b.WriteString(m.form.View())
	if due, ok := borrowing.ParseDueDate(m.form.Value("dueDate")); ok {
		b.WriteString(tui.StyleHelp.Render("due " + util.DueIn(due, m.deps.now())))
		b.WriteString("\n")
	}
	if m.submitting {
		b.WriteString(tui.StyleHelp.Render("Saving..."))
		b.WriteString("\n")
	}
	return tui.RenderWithFooter(b.String(), "", m.keys.Footer()...)
}
