package catalog

import (
	"cmp"
	"slices"
	"strings"
)

// Filter applies all non-empty criteria and returns matching books.
type Filter struct {
	Genre  Genre
	Search string // matches title, author or ISBN
}

// Apply returns the subset of books matching all non-empty filter fields.
func (f Filter) Apply(books []Book) []Book {
	var out []Book
	for _, b := range books {
		if f.Genre != "" && b.Genre != f.Genre {
			continue
		}
		if f.Search != "" && !matchesSearch(b, f.Search) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ByID returns the first book with the given ID, or nil.
func ByID(books []Book, id string) *Book {
	for i := range books {
		if books[i].ID == id {
			return &books[i]
		}
	}
	return nil
}

// IndexOf returns the position of the book with the given ID, or -1.
func IndexOf(books []Book, id string) int {
	return slices.IndexFunc(books, func(b Book) bool { return b.ID == id })
}

func matchesSearch(b Book, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q) ||
		strings.Contains(strings.ToLower(b.ISBN), q)
}

// Sortable book columns. ISBN and description are not sortable.
const (
	SortTitle     = "title"
	SortAuthor    = "author"
	SortGenre     = "genre"
	SortCopies    = "copies"
	SortAvailable = "available"
)

// SortFields lists the sortable columns in table order.
var SortFields = []string{SortTitle, SortAuthor, SortGenre, SortCopies, SortAvailable}

// Sortable reports whether field is one of SortFields.
func Sortable(field string) bool {
	return slices.Contains(SortFields, field)
}

// CompareBooks returns a comparator for the given column, or nil when the
// column is not sortable. Strings compare case-insensitively; false sorts
// before true.
func CompareBooks(field string) func(a, b Book) int {
	switch field {
	case SortTitle:
		return func(a, b Book) int { return compareFold(a.Title, b.Title) }
	case SortAuthor:
		return func(a, b Book) int { return compareFold(a.Author, b.Author) }
	case SortGenre:
		return func(a, b Book) int { return cmp.Compare(a.Genre, b.Genre) }
	case SortCopies:
		return func(a, b Book) int { return cmp.Compare(a.Copies, b.Copies) }
	case SortAvailable:
		return func(a, b Book) int { return compareBool(a.Available, b.Available) }
	}
	return nil
}

// SortBooks returns a stably sorted copy of books. Unknown fields leave the
// order untouched.
func SortBooks(books []Book, field string, desc bool) []Book {
	out := slices.Clone(books)
	compare := CompareBooks(field)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b Book) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
