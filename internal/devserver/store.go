package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/oklog/ulid/v2"
)

// httpError is a failure with the status and message the API reports.
type httpError struct {
	status  int
	message string
	fields  catalog.FieldErrors
}

func (e *httpError) Error() string { return e.message }

var (
	errNotFound      = &httpError{status: http.StatusNotFound, message: "Book not found"}
	errNotEnough     = &httpError{status: http.StatusBadRequest, message: "Not enough copies available"}
	errPastDueDate   = &httpError{status: http.StatusBadRequest, message: "Due date must be in the future"}
	errBadQuantity   = &httpError{status: http.StatusBadRequest, message: "Quantity must be at least 1"}
	errBadDateFormat = &httpError{status: http.StatusBadRequest, message: "Invalid date format"}
)

func validationFailed(fields catalog.FieldErrors) *httpError {
	return &httpError{status: http.StatusBadRequest, message: "Validation failed", fields: fields}
}

// ListOptions are the parsed query parameters of the list endpoint.
type ListOptions struct {
	Page   int
	Limit  int
	SortBy string
	Desc   bool
	Genre  catalog.Genre
}

// Paged reports whether the caller asked for a page rather than everything.
func (o ListOptions) Paged() bool { return o.Page > 0 || o.Limit > 0 }

// Store is the in-memory book and borrow database.
type Store struct {
	mu      sync.RWMutex
	books   []catalog.Book
	borrows []catalog.BorrowRecord
	now     func() time.Time
}

// NewStore creates an empty store. A nil clock means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

func newID() string {
	return strings.ToLower(ulid.Make().String())
}

// List returns the books matching opts and, for paged requests, the
// pagination metadata.
func (s *Store) List(opts ListOptions) ([]catalog.Book, *catalog.Pagination) {
	s.mu.RLock()
	books := catalog.Filter{Genre: opts.Genre}.Apply(s.books)
	s.mu.RUnlock()

	if books == nil {
		books = []catalog.Book{}
	}
	if opts.SortBy != "" {
		books = catalog.SortBooks(books, opts.SortBy, opts.Desc)
	}
	if !opts.Paged() {
		return books, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, meta := catalog.Paginate(books, opts.Page, limit)
	return rows, &meta
}

// Get returns one book.
func (s *Store) Get(id string) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b := catalog.ByID(s.books, id); b != nil {
		return *b, nil
	}
	return catalog.Book{}, errNotFound
}

// Create validates in and appends a new book.
func (s *Store) Create(in catalog.BookInput) (catalog.Book, error) {
	valid, errs := catalog.ValidateBook(formFromInput(in))
	if errs != nil {
		return catalog.Book{}, validationFailed(errs)
	}
	b := catalog.Book{
		ID:          newID(),
		Title:       valid.Title,
		Author:      valid.Author,
		Genre:       valid.Genre,
		ISBN:        valid.ISBN,
		Description: valid.Description,
		Copies:      valid.Copies,
		Available:   valid.Available,
	}
	s.mu.Lock()
	s.books = append(s.books, b)
	s.mu.Unlock()
	return b, nil
}

// Update applies p to the book and re-validates the result.
func (s *Store) Update(id string, p catalog.BookPatch) (catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := catalog.IndexOf(s.books, id)
	if i < 0 {
		return catalog.Book{}, errNotFound
	}
	updated := catalog.ApplyPatch(s.books[i], p)
	if _, errs := catalog.ValidateBook(catalog.FormFromBook(updated)); errs != nil {
		return catalog.Book{}, validationFailed(errs)
	}
	s.books[i] = updated
	return updated, nil
}

// Delete removes a book.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := catalog.IndexOf(s.books, id)
	if i < 0 {
		return errNotFound
	}
	s.books = append(s.books[:i:i], s.books[i+1:]...)
	return nil
}

// Borrow records a borrowing and takes the copies off the shelf.
func (s *Store) Borrow(req catalog.BorrowRequest) (catalog.BorrowRecord, error) {
	if req.Quantity < 1 {
		return catalog.BorrowRecord{}, errBadQuantity
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		return catalog.BorrowRecord{}, errBadDateFormat
	}
	now := s.now()
	if !due.After(now) {
		return catalog.BorrowRecord{}, errPastDueDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := catalog.IndexOf(s.books, req.Book)
	if i < 0 {
		return catalog.BorrowRecord{}, errNotFound
	}
	if s.books[i].Copies < req.Quantity {
		return catalog.BorrowRecord{}, errNotEnough
	}
	s.books[i].Copies -= req.Quantity
	s.books[i].Available = catalog.IsAvailable(s.books[i].Copies)

	rec := catalog.BorrowRecord{
		ID:        newID(),
		Book:      req.Book,
		Quantity:  req.Quantity,
		DueDate:   due.UTC(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	s.borrows = append(s.borrows, rec)
	return rec, nil
}

// Summary aggregates borrowed quantity per book in first-borrow order.
// Borrows of deleted books are skipped.
func (s *Store) Summary() []catalog.BorrowSummaryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.BorrowSummaryItem{}
	index := map[string]int{}
	for _, rec := range s.borrows {
		b := catalog.ByID(s.books, rec.Book)
		if b == nil {
			continue
		}
		if i, ok := index[rec.Book]; ok {
			out[i].TotalQuantity += rec.Quantity
			continue
		}
		index[rec.Book] = len(out)
		out = append(out, catalog.BorrowSummaryItem{
			TotalQuantity: rec.Quantity,
			Book:          catalog.BorrowedBook{Title: b.Title, ISBN: b.ISBN},
		})
	}
	return out
}

// Len returns the number of books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

func formFromInput(in catalog.BookInput) catalog.BookForm {
	return catalog.BookForm{
		Title:       in.Title,
		Author:      in.Author,
		Genre:       string(in.Genre),
		ISBN:        in.ISBN,
		Description: in.Description,
		Copies:      strconv.Itoa(in.Copies),
	}
}

// Seed adds n generated books.
func (s *Store) Seed(n int) {
	for i := 0; i < n; i++ {
		t := sampleTitles[i%len(sampleTitles)]
		title := t.title
		if i >= len(sampleTitles) {
			title = fmt.Sprintf("%s (vol. %d)", t.title, i/len(sampleTitles)+1)
		}
		copies := (i * 7) % 6
		_, _ = s.Create(catalog.BookInput{
			Title:       title,
			Author:      t.author,
			Genre:       t.genre,
			ISBN:        fmt.Sprintf("978%010d", 1000003+i*7919),
			Description: t.description,
			Copies:      copies,
		})
	}
}

var sampleTitles = []struct {
	title, author, description string
	genre                      catalog.Genre
}{
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "An envoy visits a planet whose people have no fixed sex.", catalog.GenreFiction},
	{"A Brief History of Time", "Stephen Hawking", "From the big bang to black holes.", catalog.GenreScience},
	{"The Guns of August", "Barbara W. Tuchman", "The first month of the First World War.", catalog.GenreHistory},
	{"The Hobbit", "J.R.R. Tolkien", "There and back again.", catalog.GenreFantasy},
	{"Steve Jobs", "Walter Isaacson", "", catalog.GenreBiography},
	{"Silent Spring", "Rachel Carson", "Pesticides and the natural world.", catalog.GenreNonFiction},
	{"Dune", "Frank Herbert", "Spice, sand and politics on Arrakis.", catalog.GenreFiction},
	{"The Selfish Gene", "Richard Dawkins", "", catalog.GenreScience},
	{"SPQR", "Mary Beard", "A history of ancient Rome.", catalog.GenreHistory},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "", catalog.GenreFantasy},
	{"Long Walk to Freedom", "Nelson Mandela", "", catalog.GenreBiography},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Two systems of thought.", catalog.GenreNonFiction},
}
