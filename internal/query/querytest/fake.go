// Package querytest provides an in-memory Backend for controller tests.
package querytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
)

// Operation names used for Calls and Fail.
const (
	OpList    = "list"
	OpGet     = "get"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpSummary = "summary"
	OpBorrow  = "borrow"
)

// Backend is a scriptable query.Backend. The zero value is empty and
// ready to use.
type Backend struct {
	mu      sync.Mutex
	books   []catalog.Book
	summary []catalog.BorrowSummaryItem
	calls   map[string]int
	fail    map[string]error
	gates   map[string]chan struct{}
	nextID  int

	// OmitPagination drops pagination metadata from list responses.
	OmitPagination bool

	LastCreate catalog.BookInput
	LastPatch  catalog.BookPatch
	LastBorrow catalog.BorrowRequest
}

// New returns a backend seeded with books.
func New(books ...catalog.Book) *Backend {
	b := &Backend{}
	b.books = append(b.books, books...)
	return b
}

// Books returns a copy of the stored books.
func (b *Backend) Books() []catalog.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]catalog.Book(nil), b.books...)
}

// SetSummary replaces the borrow summary.
func (b *Backend) SetSummary(items []catalog.BorrowSummaryItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = items
}

// Fail makes op return err until cleared with a nil err.
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail == nil {
		b.fail = map[string]error{}
	}
	if err == nil {
		delete(b.fail, op)
		return
	}
	b.fail[op] = err
}

// Gate makes op block until the returned function is called.
func (b *Backend) Gate(op string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	if b.gates == nil {
		b.gates = map[string]chan struct{}{}
	}
	b.gates[op] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gates[op] == ch {
				delete(b.gates, op)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// enter records the call, waits on any gate and returns the scripted error.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.mu.Lock()
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	b.calls[op]++
	gate := b.gates[op]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fail[op]
}

// NetworkError is a transport failure as the api package reports it.
func NetworkError(method, path string) error {
	return &api.Error{Method: method, Path: path, Message: "Failed to fetch", Err: fmt.Errorf("connection refused")}
}

func (b *Backend) ListBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error) {
	if err := b.enter(ctx, OpList); err != nil {
		return catalog.BookPage{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	books := append([]catalog.Book{}, b.books...)
	if args.All() {
		return catalog.BookPage{Books: books}, nil
	}
	if args.SortBy != "" {
		books = catalog.SortBooks(books, args.SortBy, args.SortOrder == "desc")
	}
	rows, meta := catalog.Paginate(books, args.Page, args.Limit)
	page := catalog.BookPage{Books: append([]catalog.Book{}, rows...)}
	if !b.OmitPagination {
		page.Pagination = &meta
	}
	return page, nil
}

func (b *Backend) GetBook(ctx context.Context, id string) (*catalog.Book, error) {
	if err := b.enter(ctx, OpGet); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if bk := catalog.ByID(b.books, id); bk != nil {
		cp := *bk
		return &cp, nil
	}
	return nil, &api.Error{Method: "GET", Path: "api/books/" + id, Status: 404, Message: "Not Found",
		Payload: &api.Payload{Message: "Book not found"}}
}

func (b *Backend) CreateBook(ctx context.Context, in catalog.BookInput) (*catalog.Book, error) {
	if err := b.enter(ctx, OpCreate); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastCreate = in
	b.nextID++
	in = in.WithDerivedAvailability()
	bk := catalog.Book{
		ID: fmt.Sprintf("new%d", b.nextID), Title: in.Title, Author: in.Author, Genre: in.Genre,
		ISBN: in.ISBN, Description: in.Description, Copies: in.Copies, Available: in.Available,
	}
	b.books = append(b.books, bk)
	return &bk, nil
}

func (b *Backend) UpdateBook(ctx context.Context, id string, p catalog.BookPatch) (*catalog.Book, error) {
	if err := b.enter(ctx, OpUpdate); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastPatch = p
	i := catalog.IndexOf(b.books, id)
	if i < 0 {
		return nil, &api.Error{Method: "PUT", Path: "api/books/" + id, Status: 404, Message: "Not Found"}
	}
	b.books[i] = catalog.ApplyPatch(b.books[i], p)
	bk := b.books[i]
	return &bk, nil
}

func (b *Backend) DeleteBook(ctx context.Context, id string) error {
	if err := b.enter(ctx, OpDelete); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := catalog.IndexOf(b.books, id); i >= 0 {
		b.books = append(b.books[:i:i], b.books[i+1:]...)
	}
	return nil
}

func (b *Backend) BorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error) {
	if err := b.enter(ctx, OpSummary); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]catalog.BorrowSummaryItem{}, b.summary...), nil
}

func (b *Backend) Borrow(ctx context.Context, req catalog.BorrowRequest) (*catalog.BorrowRecord, error) {
	if err := b.enter(ctx, OpBorrow); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastBorrow = req
	b.nextID++
	return &catalog.BorrowRecord{ID: fmt.Sprintf("r%d", b.nextID), Book: req.Book, Quantity: req.Quantity}, nil
}
