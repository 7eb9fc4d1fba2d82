package unified

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// listingChangedMsg wakes the books view after a controller notification.
type listingChangedMsg struct{}

// booksLoadedMsg ends a load or refetch.
type booksLoadedMsg struct {
	refetch bool
	err     error
}

// deleteDoneMsg ends an optimistic delete.
type deleteDoneMsg struct {
	id  string
	err error
}

// BooksModel is the paged books table.
type BooksModel struct {
	deps    Deps
	ctrl    *listing.Controller
	changed signal
	unsub   func()

	snap       listing.Snapshot
	table      table.Model
	keys       tui.TableKeys
	help       help.Model
	refetching bool
	confirm    *catalog.Book
	width      int
	height     int
	active     string
}

// NewBooksModel creates the books view and subscribes it to its controller.
func NewBooksModel(deps Deps) BooksModel {
	m := BooksModel{
		deps:    deps,
		ctrl:    listing.New(deps.Query, deps.List, deps.logger()),
		changed: newSignal(),
		table:   tui.NewBookTable(),
		keys:    tui.NewTableKeys(),
		help:    help.New(),
	}
	m.unsub = m.ctrl.Subscribe(func(listing.Snapshot) { m.changed.notify() })
	m.snap = m.ctrl.Snapshot()
	return m
}

// Close releases the controller subscriptions.
func (m BooksModel) Close() {
	m.unsub()
	m.changed.stop()
	m.ctrl.Close()
}

// Init starts listening and loads the first page.
func (m BooksModel) Init() tea.Cmd {
	return tea.Batch(m.changed.wait(listingChangedMsg{}), m.load())
}

func (m BooksModel) load() tea.Cmd {
	ctrl, deps := m.ctrl, m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return booksLoadedMsg{err: ctrl.Load(ctx)}
	}
}

func (m BooksModel) refetch() tea.Cmd {
	ctrl, deps := m.ctrl, m.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return booksLoadedMsg{refetch: true, err: ctrl.Refetch(ctx)}
	}
}

func (m BooksModel) remove(b catalog.Book) tea.Cmd {
	deleter, deps, args := m.deps.deleter, m.deps, m.ctrl.Args()
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return deleteDoneMsg{id: b.ID, err: deleter.Delete(ctx, b, args)}
	}
}

// Update handles messages for the books view
func (m BooksModel) Update(msg tea.Msg) (BooksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tui.ClearHighlightMsg:
		m.active = ""
		return m, nil

	case listingChangedMsg:
		m.sync()
		cmds := []tea.Cmd{m.changed.wait(listingChangedMsg{})}
		if m.snap.Stale && m.snap.Status != listing.StatusLoading && !m.refetching {
			m.refetching = true
			cmds = append(cmds, m.refetch())
		}
		return m, tea.Batch(cmds...)

	case booksLoadedMsg:
		if msg.refetch {
			m.refetching = false
		}
		if msg.err != nil {
			m.deps.logger().Debug("list load failed", zap.Error(msg.err))
		}
		m.sync()
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, mutation.ErrDeletePending) {
			m.deps.logger().Warn("delete failed", zap.String("book", msg.id), zap.Error(msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m BooksModel) updateConfirm(msg tea.KeyMsg) (BooksModel, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		b := *m.confirm
		m.confirm = nil
		m.active = m.keys.Delete.Help().Key
		return m, tea.Batch(m.remove(b), tui.Highlight())
	case "ctrl+c":
		return m, quit
	default:
		m.confirm = nil
		return m, nil
	}
}

func (m BooksModel) updateKeys(msg tea.KeyMsg) (BooksModel, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, k.NextPage):
		m.ctrl.NextPage()
		return m.afterNav(k.NextPage)
	case key.Matches(msg, k.PrevPage):
		m.ctrl.PrevPage()
		return m.afterNav(k.PrevPage)
	case key.Matches(msg, k.FirstPage):
		m.ctrl.FirstPage()
		return m.afterNav(k.FirstPage)
	case key.Matches(msg, k.LastPage):
		m.ctrl.LastPage()
		return m.afterNav(k.LastPage)
	case key.Matches(msg, k.PageSize):
		_ = m.ctrl.SetPageSize(nextPageSize(m.snap.PageSize))
		return m.afterNav(k.PageSize)
	case key.Matches(msg, k.Sort):
		if field, ok := tui.SortFieldForKey(msg.String()); ok {
			m.ctrl.ToggleSort(field)
		}
		return m.afterNav(k.Sort)
	case key.Matches(msg, k.Mode):
		mode := listing.ClientMode
		if m.snap.Mode == listing.ClientMode {
			mode = listing.ServerMode
		}
		m.ctrl.SetMode(mode)
		return m.afterNav(k.Mode)
	case key.Matches(msg, k.Refresh):
		m.refetching = true
		m.active = k.Refresh.Help().Key
		return m, tea.Batch(m.refetch(), tui.Highlight())
	case key.Matches(msg, k.Add):
		return m, navigate(ViewCreate, "")
	case key.Matches(msg, k.Summary):
		return m, navigate(ViewSummary, "")
	}

	b, ok := m.selected()
	switch {
	case !ok:
	case key.Matches(msg, k.Select):
		return m, navigate(ViewDetail, b.ID)
	case key.Matches(msg, k.Edit):
		return m, navigate(ViewEdit, b.ID)
	case key.Matches(msg, k.Borrow):
		return m, navigate(ViewBorrow, b.ID)
	case key.Matches(msg, k.Delete):
		if !m.deps.deleter.Pending(b.ID, m.snap.Args) {
			m.confirm = &b
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m BooksModel) afterNav(pressed key.Binding) (BooksModel, tea.Cmd) {
	m.active = pressed.Help().Key
	m.sync()
	return m, tea.Batch(m.load(), tui.Highlight())
}

func nextPageSize(cur int) int {
	i := slices.Index(listing.PageSizes, cur)
	return listing.PageSizes[(i+1)%len(listing.PageSizes)]
}

func (m BooksModel) selected() (catalog.Book, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Rows) {
		return catalog.Book{}, false
	}
	return m.snap.Rows[i], true
}

// sync copies the controller state into the table.
func (m *BooksModel) sync() {
	m.snap = m.ctrl.Snapshot()
	m.table.SetWidth(m.tableWidth())
	m.table.SetColumns(tui.TableColumns(m.tableWidth(), m.snap.Sort))
	m.table.SetRows(tui.TableRows(m.snap.Rows))
	if c := m.table.Cursor(); c >= len(m.snap.Rows) && len(m.snap.Rows) > 0 {
		m.table.SetCursor(len(m.snap.Rows) - 1)
	}
}

func (m BooksModel) tableWidth() int {
	if m.width == 0 {
		return 100
	}
	h, _ := tui.StyleBorder.GetFrameSize()
	return m.width - h
}

func (m *BooksModel) layout() {
	_, v := tui.StyleBorder.GetFrameSize()
	// title, status line, footer and help
	chrome := 6
	if m.help.ShowAll {
		chrome += 4
	}
	m.table.SetHeight(max(m.height-v-chrome, 3))
	m.table.SetColumns(tui.TableColumns(m.tableWidth(), m.snap.Sort))
}

// View renders the books view
func (m BooksModel) View() string {
	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render("Library"))
	b.WriteString("  ")
	b.WriteString(tui.StyleHelp.Render(m.statusLine()))
	b.WriteString("\n")

	switch {
	case m.snap.Status == listing.StatusError:
		b.WriteString(tui.StyleError.Render("Error: " + m.snap.ErrMessage))
		b.WriteString("\n")
		b.WriteString(tui.StyleHelp.Render("press r to retry"))
	case m.snap.Status == listing.StatusLoading && len(m.snap.Rows) == 0:
		b.WriteString(tui.StyleHelp.Render("Loading books..."))
	case m.snap.Empty():
		b.WriteString(tui.StyleHelp.Render("No books found."))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.confirm != nil {
		b.WriteString(tui.StyleHighlight.Render(fmt.Sprintf("Delete %q? (y/N)", m.confirm.Title)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	k := m.keys
	return tui.RenderWithFooter(b.String(), m.active,
		k.PrevPage, k.NextPage, k.Sort, k.PageSize, k.Mode, k.Refresh, k.Delete)
}

func (m BooksModel) statusLine() string {
	s := m.snap
	parts := []string{
		fmt.Sprintf("page %d of %d", s.PageIndex+1, s.PageCount()),
		util.Count(s.Pagination.TotalBooks, "book", "books"),
		fmt.Sprintf("%d per page", s.PageSize),
		s.Mode.String(),
	}
	if s.Sort.IsSet() {
		parts = append(parts, "sorted by "+s.Sort.Field+" "+s.Sort.Order())
	}
	if s.Status == listing.StatusLoading {
		parts = append(parts, "loading")
	}
	if s.Stale {
		parts = append(parts, lipgloss.NewStyle().Foreground(tui.ColorYellow).Render("stale"))
	}
	return strings.Join(parts, " · ")
}
