package unified

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/detail"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailChangedMsg struct{}

type detailLoadedMsg struct{ refetch bool }

// DetailModel shows one book.
type DetailModel struct {
	deps    Deps
	id      string
	ctrl    *detail.Controller
	changed signal
	unsub   func()

	snap       detail.Snapshot
	refetching bool
	width      int
	height     int
	active     string
}

// NewDetailModel creates the detail view for book id.
func NewDetailModel(deps Deps, id string) DetailModel {
	m := DetailModel{
		deps:    deps,
		id:      id,
		ctrl:    detail.New(deps.Query, deps.logger()),
		changed: newSignal(),
	}
	m.unsub = m.ctrl.Subscribe(func(detail.Snapshot) { m.changed.notify() })
	return m
}

// Close releases the controller subscriptions.
func (m DetailModel) Close() {
	m.unsub()
	m.changed.stop()
	m.ctrl.Close()
}

// Init starts loading the book.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.changed.wait(detailChangedMsg{}), m.load(false))
}

func (m DetailModel) load(refetch bool) tea.Cmd {
	ctrl, deps, id := m.ctrl, m.deps, m.id
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		if refetch {
			_, _ = ctrl.Refetch(ctx)
		} else {
			_, _ = ctrl.Load(ctx, id)
		}
		return detailLoadedMsg{refetch: refetch}
	}
}

// Update handles messages for the detail view
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tui.ClearHighlightMsg:
		m.active = ""
		return m, nil

	case detailChangedMsg:
		m.snap = m.ctrl.Snapshot()
		cmds := []tea.Cmd{m.changed.wait(detailChangedMsg{})}
		if m.snap.Stale && !m.refetching {
			m.refetching = true
			cmds = append(cmds, m.load(true))
		}
		return m, tea.Batch(cmds...)

	case detailLoadedMsg:
		if msg.refetch {
			m.refetching = false
		}
		m.snap = m.ctrl.Snapshot()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, quit
		case "q", "esc", "backspace":
			return m, navigate(ViewBooks, "")
		case "r":
			m.refetching = true
			m.active = "r"
			return m, tea.Batch(m.load(true), tui.Highlight())
		}
		if m.snap.Status != detail.StatusReady {
			return m, nil
		}
		switch msg.String() {
		case "e":
			return m, navigate(ViewEdit, m.id)
		case "b":
			return m, navigate(ViewBorrow, m.id)
		}
	}
	return m, nil
}

// View renders the detail view
func (m DetailModel) View() string {
	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render("Book details"))
	b.WriteString("\n\n")

	switch {
	case m.snap.NotFound():
		b.WriteString(tui.StyleError.Render("Book not found"))
	case m.snap.Status == detail.StatusError:
		b.WriteString(tui.StyleError.Render("Error: " + m.snap.ErrMessage))
	case m.snap.Status == detail.StatusReady:
		bk := m.snap.Book
		label := lipgloss.NewStyle().Foreground(tui.ColorGray).Width(14)
		row := func(name, value string) {
			b.WriteString(label.Render(name))
			b.WriteString(value)
			b.WriteString("\n")
		}
		row("Title", tui.StyleHighlight.Render(bk.Title))
		row("Author", bk.Author)
		row("Genre", tui.StyleTag.Render(string(bk.Genre)))
		row("ISBN", bk.ISBN)
		row("Copies", strconv.Itoa(bk.Copies))
		row("Availability", tui.Availability(bk.Available))
		if bk.Description != "" {
			b.WriteString("\n")
			width := max(m.width-8, 20)
			b.WriteString(lipgloss.NewStyle().Width(width).Render(bk.Description))
			b.WriteString("\n")
		}
		if m.snap.Stale {
			b.WriteString(tui.StyleHelp.Render(fmt.Sprintf("\n%s changed, refreshing...", bk.Title)))
		}
	default:
		b.WriteString(tui.StyleHelp.Render("Loading..."))
	}
	b.WriteString("\n")

	return tui.RenderWithFooter(b.String(), m.active,
		key.NewBinding(key.WithHelp("e", "edit")),
		key.NewBinding(key.WithHelp("b", "borrow")),
		key.NewBinding(key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithHelp("esc", "back")))
}
