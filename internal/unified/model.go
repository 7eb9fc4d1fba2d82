package unified

import (
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// View represents the current active view
type View string

const (
	ViewBooks   View = "books"
	ViewDetail  View = "detail"
	ViewCreate  View = "create"
	ViewEdit    View = "edit"
	ViewBorrow  View = "borrow"
	ViewSummary View = "summary"
)

// Model is the TUI orchestrator that manages view switching
type Model struct {
	deps        Deps
	currentView View
	width       int
	height      int

	// The books view lives for the whole session so the page state survives
	// navigation.
	books   BooksModel
	detail  DetailModel
	form    BookFormModel
	borrow  BorrowModel
	summary SummaryModel

	toasts tui.Toasts
	notes  chan mutation.Notification
}

// New creates the unified model starting at the books table
func New(deps Deps) Model {
	notes := make(chan mutation.Notification, 16)
	deps.deleter = mutation.NewDeleter(deps.Query, mutation.NotifierFunc(func(n mutation.Notification) {
		select {
		case notes <- n:
		default:
			deps.logger().Warn("dropping notification", zap.String("title", n.Title))
		}
	}), deps.logger())

	return Model{
		deps:        deps,
		currentView: ViewBooks,
		books:       NewBooksModel(deps),
		notes:       notes,
	}
}

// Close releases every controller subscription.
func (m Model) Close() {
	m.closeCurrent()
	m.books.Close()
}

func (m Model) waitForNote() tea.Cmd {
	notes := m.notes
	return func() tea.Msg { return deleteNoteMsg{n: <-notes} }
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.books.Init(), m.waitForNote())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// The books view keeps its layout while hidden.
		var cmd tea.Cmd
		m.books, cmd = m.books.Update(msg)
		if m.currentView == ViewBooks {
			return m, cmd
		}
		next, cmd2 := m.updateCurrentView(msg)
		return next, tea.Batch(cmd, cmd2)

	case NavigateMsg:
		return m.handleNavigation(msg)

	case QuitAppMsg:
		return m, tea.Quit

	case notificationMsg:
		var cmd tea.Cmd
		m.toasts, cmd = m.toasts.Push(msg.n)
		return m, cmd

	case deleteNoteMsg:
		var cmd tea.Cmd
		m.toasts, cmd = m.toasts.Push(msg.n)
		return m, tea.Batch(cmd, m.waitForNote())

	case listingChangedMsg, booksLoadedMsg, deleteDoneMsg:
		// Background results for the books view arrive whatever is on screen.
		var cmd tea.Cmd
		m.books, cmd = m.books.Update(msg)
		return m, cmd
	}

	var tcmd tea.Cmd
	m.toasts, tcmd = m.toasts.Update(msg)
	next, cmd := m.updateCurrentView(msg)
	return next, tea.Batch(tcmd, cmd)
}

func (m Model) View() string {
	var body string
	switch m.currentView {
	case ViewBooks:
		body = m.books.View()
	case ViewDetail:
		body = m.detail.View()
	case ViewCreate, ViewEdit:
		body = m.form.View()
	case ViewBorrow:
		body = m.borrow.View()
	case ViewSummary:
		body = m.summary.View()
	default:
		body = "Unknown view"
	}
	if m.toasts.Len() == 0 {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.toasts.View())
}

func (m Model) updateCurrentView(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBooks:
		m.books, cmd = m.books.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewCreate, ViewEdit:
		m.form, cmd = m.form.Update(msg)
	case ViewBorrow:
		m.borrow, cmd = m.borrow.Update(msg)
	case ViewSummary:
		m.summary, cmd = m.summary.Update(msg)
	}

	return m, cmd
}

// closeCurrent releases the subscriptions of the active secondary view.
func (m Model) closeCurrent() {
	switch m.currentView {
	case ViewDetail:
		m.detail.Close()
	case ViewSummary:
		m.summary.Close()
	}
}

func (m Model) handleNavigation(msg NavigateMsg) (tea.Model, tea.Cmd) {
	m.closeCurrent()
	size := func() tea.Msg { return tea.WindowSizeMsg{Width: m.width, Height: m.height} }

	m.currentView = msg.Target
	var init tea.Cmd
	switch msg.Target {
	case ViewBooks:
		// Reload in case the cache entry was dropped while away.
		return m, m.books.load()
	case ViewDetail:
		m.detail = NewDetailModel(m.deps, msg.BookID)
		init = m.detail.Init()
	case ViewCreate:
		m.form = NewCreateModel(m.deps)
		init = m.form.Init()
	case ViewEdit:
		m.form = NewEditModel(m.deps, msg.BookID)
		init = m.form.Init()
	case ViewBorrow:
		m.borrow = NewBorrowModel(m.deps, msg.BookID)
		init = m.borrow.Init()
	case ViewSummary:
		m.summary = NewSummaryModel(m.deps)
		init = m.summary.Init()
	default:
		// Unknown target, go home
		m.currentView = ViewBooks
		return m, nil
	}
	return m, tea.Batch(init, size)
}
