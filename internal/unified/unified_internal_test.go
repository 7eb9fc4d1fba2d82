package unified

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/query"
	"github.com/blackwell-systems/libraryctl/internal/query/querytest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func makeBooks(n int) []catalog.Book {
	out := make([]catalog.Book, n)
	for i := range out {
		out[i] = catalog.Book{
			ID:        fmt.Sprintf("b%02d", i+1),
			Title:     fmt.Sprintf("Book %02d", i+1),
			Author:    "Author",
			Genre:     catalog.GenreFiction,
			ISBN:      fmt.Sprintf("isbn-%02d", i+1),
			Copies:    1,
			Available: true,
		}
	}
	return out
}

func newTestModel(t *testing.T, be *querytest.Backend) Model {
	t.Helper()
	m := New(Deps{
		Query: query.New(be, 0, nil),
		List:  listing.Config{Mode: listing.ServerMode, PageSize: 10, Sort: listing.Sort{Field: catalog.SortTitle}},
		Now:   func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) },
	})
	t.Cleanup(m.Close)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadBooks(m BooksModel) BooksModel {
	m, _ = m.Update(m.load()())
	return m
}

func TestBooks_FirstPage(t *testing.T) {
	m := newTestModel(t, querytest.New(makeBooks(25)...))
	books := loadBooks(m.books)

	view := books.View()
	for _, want := range []string{"Book 01", "Book 10", "page 1 of 3", "25 books"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Book 11") {
		t.Error("first page shows a row of the second page")
	}
}

func TestBooks_NextPage(t *testing.T) {
	m := newTestModel(t, querytest.New(makeBooks(25)...))
	books := loadBooks(m.books)

	books, _ = books.Update(keyMsg("right"))
	if got := books.ctrl.Args().Page; got != 2 {
		t.Fatalf("page = %d, want 2", got)
	}
	books = loadBooks(books)
	if view := books.View(); !strings.Contains(view, "Book 11") || !strings.Contains(view, "page 2 of 3") {
		t.Errorf("second page not rendered:\n%s", view)
	}
}

func TestBooks_SortKeyTogglesColumn(t *testing.T) {
	m := newTestModel(t, querytest.New(makeBooks(3)...))
	books := loadBooks(m.books)

	books, _ = books.Update(keyMsg("1")) // title: asc -> desc
	if diff := cmp.Diff(listing.Sort{Field: catalog.SortTitle, Desc: true}, books.ctrl.Snapshot().Sort); diff != "" {
		t.Errorf("sort (-want +got):\n%s", diff)
	}
	books = loadBooks(books)
	if got := books.snap.Rows[0].ID; got != "b03" {
		t.Errorf("first row = %s, want b03", got)
	}
}

func TestBooks_DeleteFailureRestoresRow(t *testing.T) {
	be := querytest.New(makeBooks(3)...)
	be.Fail(querytest.OpDelete, querytest.NetworkError("DELETE", "/api/books/b01"))
	m := newTestModel(t, be)
	books := loadBooks(m.books)

	books, _ = books.Update(keyMsg("d"))
	if books.confirm == nil || !strings.Contains(books.View(), `Delete "Book 01"?`) {
		t.Fatal("delete should ask for confirmation")
	}
	books, _ = books.Update(keyMsg("n"))
	if books.confirm != nil {
		t.Fatal("any other key cancels the confirmation")
	}

	done := books.remove(books.snap.Rows[0])()
	books, _ = books.Update(done)
	books, _ = books.Update(listingChangedMsg{})

	select {
	case n := <-m.notes:
		if n.Kind != mutation.Failure || n.Title != mutation.TitleDeleteFailed || n.Message != "Failed to fetch" {
			t.Errorf("notification = %+v", n)
		}
	default:
		t.Fatal("no notification after failed delete")
	}
	got := make([]string, len(books.snap.Rows))
	for i, b := range books.snap.Rows {
		got[i] = b.ID
	}
	if diff := cmp.Diff([]string{"b01", "b02", "b03"}, got); diff != "" {
		t.Errorf("rows after failed delete (-want +got):\n%s", diff)
	}
}

func TestNavigate_Detail(t *testing.T) {
	m := newTestModel(t, querytest.New(makeBooks(3)...))

	next, _ := m.handleNavigation(NavigateMsg{Target: ViewDetail, BookID: "b02"})
	mm := next.(Model)
	if mm.currentView != ViewDetail {
		t.Fatalf("view = %s, want detail", mm.currentView)
	}
	mm.detail, _ = mm.detail.Update(mm.detail.load(false)())
	view := mm.View()
	if !strings.Contains(view, "Book 02") || !strings.Contains(view, "Available") {
		t.Errorf("detail view:\n%s", view)
	}

	back, _ := mm.handleNavigation(NavigateMsg{Target: ViewBooks})
	if back.(Model).currentView != ViewBooks {
		t.Error("did not return to the books view")
	}
}

func TestEditForm_SendsChangedFields(t *testing.T) {
	be := querytest.New(makeBooks(1)...)
	m := newTestModel(t, be)
	f := NewEditModel(m.deps, "b01")

	b, err := m.deps.Query.Book(context.Background(), "b01")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	f, _ = f.Update(bookSeededMsg{book: b})
	if got := f.form.Value("title"); got != "Book 01" {
		t.Fatalf("seeded title = %q", got)
	}

	f.form.SetValue("title", "Renamed")
	f, cmd := f.trySubmit()
	if !f.submitting || cmd == nil {
		t.Fatal("submit did not start")
	}
	f, _ = f.Update(cmd())
	if diff := cmp.Diff([]string{"title", "available"}, be.LastPatch.Fields()); diff != "" {
		t.Errorf("patch fields (-want +got):\n%s", diff)
	}
	if f.err != "" {
		t.Errorf("unexpected error %q", f.err)
	}
}

func TestCreateForm_ValidationShownInline(t *testing.T) {
	be := querytest.New()
	m := newTestModel(t, be)
	f := NewCreateModel(m.deps)

	f, cmd := f.trySubmit()
	f, _ = f.Update(cmd())
	if !strings.Contains(f.View(), "Title is required.") {
		t.Errorf("missing inline error:\n%s", f.View())
	}
	if n := be.Calls(querytest.OpCreate); n != 0 {
		t.Errorf("create calls = %d, want 0", n)
	}
}

func TestBorrowForm_Defaults(t *testing.T) {
	m := newTestModel(t, querytest.New(makeBooks(1)...))
	b := NewBorrowModel(m.deps, "b01")
	if got := b.form.Value("dueDate"); got != "2026-03-11" {
		t.Errorf("due date = %q, want tomorrow", got)
	}
	if got := b.form.Value("quantity"); got != "1" {
		t.Errorf("quantity = %q", got)
	}
}
