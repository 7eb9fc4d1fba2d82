package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/devserver"
	"github.com/google/go-cmp/cmp"
)

// harness runs fresh root commands against an in-memory backend.
type harness struct {
	t      *testing.T
	store  *devserver.Store
	url    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := devserver.NewStore(time.Now)
	ts := httptest.NewServer(devserver.New(store, nil))
	t.Cleanup(ts.Close)
	return &harness{
		t:      t,
		store:  store,
		url:    ts.URL,
		config: filepath.Join(t.TempDir(), "config.yml"),
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", h.config, "--base-url", h.url, "--no-color", "--no-interactive"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) add(title string, copies int) catalog.Book {
	h.t.Helper()
	b, err := h.store.Create(catalog.BookInput{
		Title:  title,
		Author: "Author",
		Genre:  catalog.GenreFiction,
		ISBN:   "978" + title,
		Copies: copies,
	})
	if err != nil {
		h.t.Fatalf("seeding %q: %v", title, err)
	}
	return b
}

func TestBooksAdd(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("books", "add", "--title", "Dune", "--author", "Frank Herbert",
		"--genre", "fiction", "--isbn", "9780441013593", "--copies", "3")
	if err != nil {
		t.Fatalf("books add: %v", err)
	}

	books, _ := h.store.List(devserver.ListOptions{})
	if len(books) != 1 {
		t.Fatalf("store has %d books, want 1", len(books))
	}
	got := books[0]
	if got.Title != "Dune" || got.Genre != catalog.GenreFiction || got.Copies != 3 || !got.Available {
		t.Errorf("created %+v", got)
	}
}

func TestBooksAdd_InvalidSendsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("books", "add", "--author", "Nobody", "--isbn", "1")
	if err == nil || !strings.Contains(err.Error(), "invalid book") {
		t.Fatalf("err = %v, want invalid book", err)
	}
	if h.store.Len() != 0 {
		t.Errorf("store has %d books, want 0", h.store.Len())
	}
}

func TestBooksEdit_OnlyPassedFlagsChange(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dune", 2)

	if _, err := h.run("books", "edit", b.ID, "--copies", "0"); err != nil {
		t.Fatalf("books edit: %v", err)
	}

	got, err := h.store.Get(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := b
	want.Copies = 0
	want.Available = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("book mismatch (-want +got):\n%s", diff)
	}
}

func TestBooksEdit_NothingChanged(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dune", 2)

	if _, err := h.run("books", "edit", b.ID, "--title", "Dune"); err != nil {
		t.Fatalf("books edit: %v", err)
	}
	got, _ := h.store.Get(b.ID)
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("book changed (-want +got):\n%s", diff)
	}
}

func TestBooksDelete_Yes(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dune", 2)
	h.add("Emma", 1)

	if _, err := h.run("books", "delete", b.ID, "--yes"); err != nil {
		t.Fatalf("books delete: %v", err)
	}
	if h.store.Len() != 1 {
		t.Errorf("store has %d books, want 1", h.store.Len())
	}
	if _, err := h.store.Get(b.ID); err == nil {
		t.Error("deleted book still present")
	}
}

func TestBooksShow_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("books", "show", "missing")
	if err == nil || !strings.Contains(err.Error(), "Book not found") {
		t.Fatalf("err = %v, want Book not found", err)
	}
}

func TestBooksList_RejectsPageSize(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("books", "list", "--limit", "7")
	if err == nil || !strings.Contains(err.Error(), "unsupported page size") {
		t.Fatalf("err = %v, want unsupported page size", err)
	}
}

func TestBorrow(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dune", 3)

	if _, err := h.run("borrow", b.ID, "--quantity", "2", "--due", "2099-01-01"); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	got, _ := h.store.Get(b.ID)
	if got.Copies != 1 {
		t.Errorf("copies = %d, want 1", got.Copies)
	}
	want := []catalog.BorrowSummaryItem{{TotalQuantity: 2, Book: catalog.BorrowedBook{Title: "Dune", ISBN: b.ISBN}}}
	if diff := cmp.Diff(want, h.store.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBorrow_PastDueDate(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dune", 3)

	_, err := h.run("borrow", b.ID, "--due", "2001-01-01")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got, _ := h.store.Get(b.ID); got.Copies != 3 {
		t.Errorf("copies = %d, want 3", got.Copies)
	}
}

func TestSummarySort(t *testing.T) {
	s, err := summarySort("quantity", "desc")
	if err != nil || s.Field != "quantity" || !s.Desc {
		t.Errorf("summarySort = %+v, %v", s, err)
	}
	if _, err := summarySort("author", "asc"); err == nil {
		t.Error("author should not be sortable")
	}
	if _, err := summarySort("title", "sideways"); err == nil {
		t.Error("unknown order should fail")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(h.config)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "base_url: "+h.url) {
		t.Errorf("config file missing base_url:\n%s", data)
	}

	if _, err := h.run("config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err := h.run("config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "page_size: 10") {
		t.Errorf("config show output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "libraryctl "+appVersion+"\n" {
		t.Errorf("version output = %q", out)
	}
}
