package unified

import (
	"strconv"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/borrowing"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

type summaryChangedMsg struct{}

type summaryLoadedMsg struct{ refetch bool }

// SummaryModel is the borrowed books summary table.
type SummaryModel struct {
	deps    Deps
	ctrl    *borrowing.Summary
	changed signal
	unsub   func()

	snap       borrowing.SummarySnapshot
	table      table.Model
	refetching bool
	width      int
	height     int
	active     string
}

// NewSummaryModel creates the summary view.
func NewSummaryModel(deps Deps) SummaryModel {
	m := SummaryModel{
		deps:    deps,
		ctrl:    borrowing.NewSummary(deps.Query, deps.logger()),
		changed: newSignal(),
		table:   tui.NewBookTable(),
	}
	m.unsub = m.ctrl.Subscribe(func(borrowing.SummarySnapshot) { m.changed.notify() })
	return m
}

// Close releases the controller subscriptions.
func (m SummaryModel) Close() {
	m.unsub()
	m.changed.stop()
	m.ctrl.Close()
}

// Init starts loading the summary.
func (m SummaryModel) Init() tea.Cmd {
	return tea.Batch(m.changed.wait(summaryChangedMsg{}), m.load(false))
}

func (m SummaryModel) load(refetch bool) tea.Cmd {
	ctrl, deps := m.ctrl, m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		if refetch {
			_ = ctrl.Refetch(ctx)
		} else {
			_ = ctrl.Load(ctx)
		}
		return summaryLoadedMsg{refetch: refetch}
	}
}

// Update handles messages for the summary view
func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(m.height-10, 3))
		m.sync()
		return m, nil

	case tui.ClearHighlightMsg:
		m.active = ""
		return m, nil

	case summaryChangedMsg:
		m.sync()
		cmds := []tea.Cmd{m.changed.wait(summaryChangedMsg{})}
		if m.snap.Stale && m.snap.Status != listing.StatusLoading && !m.refetching {
			m.refetching = true
			cmds = append(cmds, m.load(true))
		}
		return m, tea.Batch(cmds...)

	case summaryLoadedMsg:
		if msg.refetch {
			m.refetching = false
		}
		m.sync()
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
		case "1", "2", "3":
			i, _ := strconv.Atoi(msg.String())
			m.ctrl.ToggleSort(borrowing.SummaryFields[i-1])
			m.active = "1-3"
			m.sync()
			return m, tui.Highlight()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *SummaryModel) sync() {
	m.snap = m.ctrl.Snapshot()
	width := m.width
	if width == 0 {
		width = 80
	}
	m.table.SetWidth(width - 4)
	m.table.SetColumns(tui.SummaryColumns(width-4, m.snap.Sort))
	m.table.SetRows(tui.SummaryRows(m.snap.Rows))
}

// View renders the summary view
func (m SummaryModel) View() string {
	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render("Borrowed books"))
	if m.snap.Status == listing.StatusReady {
		b.WriteString("  ")
		b.WriteString(tui.StyleHelp.Render(strconv.Itoa(m.snap.TotalQuantity()) + " copies out"))
	}
	b.WriteString("\n")

	switch {
	case m.snap.Status == listing.StatusError:
		b.WriteString(tui.StyleError.Render("Error: " + m.snap.ErrMessage))
	case m.snap.Status == listing.StatusLoading && len(m.snap.Rows) == 0,
		m.snap.Status == listing.StatusIdle:
		b.WriteString(tui.StyleHelp.Render("Loading..."))
	case m.snap.Empty():
		b.WriteString(tui.StyleHelp.Render("No books have been borrowed yet."))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	return tui.RenderWithFooter(b.String(), m.active,
		key.NewBinding(key.WithHelp("1-3", "sort")),
		key.NewBinding(key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithHelp("esc", "back")))
}
