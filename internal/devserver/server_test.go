package devserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/devserver"
	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newClient(t *testing.T, seed int, opts ...devserver.Option) (*api.Client, *devserver.Server, *devserver.Store) {
	t.Helper()
	st := devserver.NewStore(func() time.Time { return fixedNow })
	st.Seed(seed)
	srv := devserver.New(st, nil, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return api.New(ts.URL, 5*time.Second), srv, st
}

func TestListBooks_PaginationMetadata(t *testing.T) {
	c, _, _ := newClient(t, 25)
	page, err := c.ListBooks(context.Background(), catalog.ListQueryArgs{Page: 1, Limit: 10, SortBy: "title", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	want := &catalog.Pagination{CurrentPage: 1, TotalPages: 3, TotalBooks: 25, Limit: 10, HasNextPage: true}
	if diff := cmp.Diff(want, page.Pagination); diff != "" {
		t.Errorf("pagination mismatch (-want +got):\n%s", diff)
	}
	if len(page.Books) != 10 {
		t.Errorf("len(books) = %d, want 10", len(page.Books))
	}
	sorted := catalog.SortBooks(page.Books, "title", false)
	if diff := cmp.Diff(sorted, page.Books); diff != "" {
		t.Errorf("page not sorted by title (-want +got):\n%s", diff)
	}
}

func TestListBooks_AllWithoutPagination(t *testing.T) {
	c, _, _ := newClient(t, 13)
	page, err := c.ListBooks(context.Background(), catalog.ListQueryArgs{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 13 || page.Pagination != nil {
		t.Errorf("got %d books, pagination %v", len(page.Books), page.Pagination)
	}
}

func TestCreateGetUpdateDelete(t *testing.T) {
	c, _, _ := newClient(t, 0)
	ctx := context.Background()

	created, err := c.CreateBook(ctx, catalog.BookInput{
		Title: "Anathem", Author: "Neal Stephenson", Genre: catalog.GenreFiction, ISBN: "42", Copies: 2,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if created.ID == "" || !created.Available {
		t.Fatalf("created = %+v", created)
	}

	zero := 0
	updated, err := c.UpdateBook(ctx, created.ID, catalog.BookPatch{Copies: &zero})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if updated.Available {
		t.Error("book with 0 copies should be unavailable")
	}

	got, err := c.GetBook(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Errorf("get after update (-want +got):\n%s", diff)
	}

	if err := c.DeleteBook(ctx, created.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	_, err = c.GetBook(ctx, created.ID)
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("GetBook after delete: err = %v, want ErrNotFound", err)
	}
	if api.Message(err, "") != "Book not found" {
		t.Errorf("message = %q", api.Message(err, ""))
	}
}

func TestCreateBook_ValidationFailed(t *testing.T) {
	c, _, _ := newClient(t, 0)
	_, err := c.CreateBook(context.Background(), catalog.BookInput{Genre: "POETRY"})
	if !errors.Is(err, api.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	if api.Message(err, "") != "Validation failed" {
		t.Errorf("message = %q", api.Message(err, ""))
	}
}

func TestFailingDeletes(t *testing.T) {
	c, srv, st := newClient(t, 3, devserver.WithFailingDeletes(true))
	page, _ := c.ListBooks(context.Background(), catalog.ListQueryArgs{})
	err := c.DeleteBook(context.Background(), page.Books[0].ID)
	if !errors.Is(err, api.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	if st.Len() != 3 {
		t.Error("failed delete removed a book")
	}
	srv.SetFailingDeletes(false)
	if err := c.DeleteBook(context.Background(), page.Books[0].ID); err != nil {
		t.Errorf("DeleteBook: %v", err)
	}
}

func TestBorrowAndSummary(t *testing.T) {
	c, _, st := newClient(t, 0)
	ctx := context.Background()
	b, err := c.CreateBook(ctx, catalog.BookInput{Title: "Dune", Author: "Herbert", Genre: catalog.GenreFiction, ISBN: "111", Copies: 3})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	due := fixedNow.Add(72 * time.Hour).Format("2006-01-02T15:04:05.000Z")
	for _, q := range []int{1, 2} {
		if _, err := c.Borrow(ctx, catalog.BorrowRequest{Book: b.ID, Quantity: q, DueDate: due}); err != nil {
			t.Fatalf("Borrow(%d): %v", q, err)
		}
	}
	after, _ := st.Get(b.ID)
	if after.Copies != 0 || after.Available {
		t.Errorf("after borrowing all copies: %+v", after)
	}

	_, err = c.Borrow(ctx, catalog.BorrowRequest{Book: b.ID, Quantity: 1, DueDate: due})
	if api.Message(err, "") != "Not enough copies available" {
		t.Errorf("over-borrow err = %v", err)
	}

	items, err := c.BorrowSummary(ctx)
	if err != nil {
		t.Fatalf("BorrowSummary: %v", err)
	}
	want := []catalog.BorrowSummaryItem{{TotalQuantity: 3, Book: catalog.BorrowedBook{Title: "Dune", ISBN: "111"}}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBorrow_PastDueDate(t *testing.T) {
	c, _, _ := newClient(t, 1)
	page, _ := c.ListBooks(context.Background(), catalog.ListQueryArgs{})
	_, err := c.Borrow(context.Background(), catalog.BorrowRequest{
		Book: page.Books[0].ID, Quantity: 1, DueDate: fixedNow.Add(-time.Hour).Format(time.RFC3339),
	})
	if api.Message(err, "") != "Due date must be in the future" {
		t.Errorf("err = %v", err)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := devserver.New(devserver.NewStore(nil), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("code = %d, request id = %q", rec.Code, rec.Header().Get("X-Request-ID"))
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := devserver.New(devserver.NewStore(nil), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
