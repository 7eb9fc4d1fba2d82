// Package listing drives the books table: page and sort state, the request
// arguments derived from it, and the normalized result for the current view.
package listing

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
)

// Mode selects where paging and sorting happen.
type Mode int

const (
	// ServerMode sends page, limit and sort to the backend.
	ServerMode Mode = iota
	// ClientMode fetches the whole collection once and pages locally.
	ClientMode
)

// ParseMode accepts "server" or "client".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "server":
		return ServerMode, nil
	case "client":
		return ClientMode, nil
	}
	return ServerMode, fmt.Errorf("unknown list mode %q (want server or client)", s)
}

func (m Mode) String() string {
	if m == ClientMode {
		return "client"
	}
	return "server"
}

// Status is the load state of the current view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	}
	return "idle"
}

// Sort is the single active sort column. The zero value means unsorted.
type Sort struct {
	Field string
	Desc  bool
}

// IsSet reports whether a column is sorted.
func (s Sort) IsSet() bool { return s.Field != "" }

// Order returns "asc" or "desc", or "" when unsorted.
func (s Sort) Order() string {
	switch {
	case !s.IsSet():
		return ""
	case s.Desc:
		return "desc"
	}
	return "asc"
}

// Next returns the sort after toggling field: unset, asc, desc, unset.
// Toggling a different column starts it at asc and drops the current one.
func (s Sort) Next(field string) Sort {
	if s.Field != field {
		return Sort{Field: field}
	}
	if !s.Desc {
		return Sort{Field: field, Desc: true}
	}
	return Sort{}
}

// ParseSort builds a Sort from a column and an "asc"/"desc" order.
func ParseSort(field, order string) (Sort, error) {
	if field == "" {
		return Sort{}, nil
	}
	if !catalog.Sortable(field) {
		return Sort{}, fmt.Errorf("column %q is not sortable (want one of %s)", field, strings.Join(catalog.SortFields, ", "))
	}
	switch strings.ToLower(order) {
	case "", "asc":
		return Sort{Field: field}, nil
	case "desc":
		return Sort{Field: field, Desc: true}, nil
	}
	return Sort{}, fmt.Errorf("unknown sort order %q (want asc or desc)", order)
}

// PageSizes are the selectable page sizes.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used when no size is configured.
const DefaultPageSize = 10

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	Mode       Mode
	Status     Status
	Rows       []catalog.Book
	Pagination catalog.Pagination
	PageIndex  int
	PageSize   int
	Sort       Sort
	Args       catalog.ListQueryArgs
	Err        error
	ErrMessage string
	// Stale is set when the cached result for Args was invalidated and
	// should be refetched.
	Stale bool
}

// Empty reports a successful load with no rows.
func (s Snapshot) Empty() bool {
	return s.Status == StatusReady && len(s.Rows) == 0
}

// PageCount returns the number of pages, at least 1 once loaded.
func (s Snapshot) PageCount() int {
	return max(s.Pagination.TotalPages, 1)
}

// normalize turns a cached list result into the rows and metadata for the
// given page state.
func normalize(mode Mode, page catalog.BookPage, pageIndex, pageSize int, sort Sort) ([]catalog.Book, catalog.Pagination) {
	if mode == ClientMode {
		return catalog.Paginate(catalog.SortBooks(page.Books, sort.Field, sort.Desc), pageIndex+1, pageSize)
	}
	if page.Pagination != nil {
		return page.Books, *page.Pagination
	}
	// The server ignored paging and returned everything.
	if len(page.Books) > pageSize {
		return catalog.Paginate(catalog.SortBooks(page.Books, sort.Field, sort.Desc), pageIndex+1, pageSize)
	}
	// Only the rows up to this page are known; a full page may have a
	// successor.
	hasNext := len(page.Books) == pageSize
	totalPages := pageIndex + 1
	if hasNext {
		totalPages++
	}
	return page.Books, catalog.Pagination{
		CurrentPage: pageIndex + 1,
		TotalPages:  totalPages,
		TotalBooks:  pageIndex*pageSize + len(page.Books),
		Limit:       pageSize,
		HasNextPage: hasNext,
		HasPrevPage: pageIndex > 0,
	}
}
