package catalog

import "time"

// Genre is one of the fixed book genres accepted by the backend.
type Genre string

const (
	GenreFiction    Genre = "FICTION"
	GenreNonFiction Genre = "NON_FICTION"
	GenreScience    Genre = "SCIENCE"
	GenreHistory    Genre = "HISTORY"
	GenreBiography  Genre = "BIOGRAPHY"
	GenreFantasy    Genre = "FANTASY"
)

// Genres lists every genre in display order.
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreHistory,
	GenreBiography,
	GenreFantasy,
}

// Valid reports whether g is one of Genres.
func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Book is one entry returned by the books endpoints.
type Book struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       Genre  `json:"genre"`
	ISBN        string `json:"isbn"`
	Description string `json:"description,omitempty"`
	Copies      int    `json:"copies"`
	Available   bool   `json:"available"`
}

// Availability returns the display label for the availability flag.
func (b Book) Availability() string {
	if b.Available {
		return "Available"
	}
	return "Unavailable"
}

// IsAvailable is the derived availability rule: a book is available iff at
// least one copy exists.
func IsAvailable(copies int) bool {
	return copies > 0
}

// BookInput is the create payload: every book field except the identifier,
// with availability derived from copies.
type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       Genre  `json:"genre"`
	ISBN        string `json:"isbn"`
	Description string `json:"description,omitempty"`
	Copies      int    `json:"copies"`
	Available   bool   `json:"available"`
}

// WithDerivedAvailability returns a copy of in whose Available field follows
// the copy count, whatever the caller set.
func (in BookInput) WithDerivedAvailability() BookInput {
	in.Available = IsAvailable(in.Copies)
	return in
}

// BookPatch is a partial update payload. Nil fields are left out of the
// request body.
type BookPatch struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Genre       *Genre  `json:"genre,omitempty"`
	ISBN        *string `json:"isbn,omitempty"`
	Description *string `json:"description,omitempty"`
	Copies      *int    `json:"copies,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// Fields returns the JSON names of the fields set on p, in declaration order.
func (p BookPatch) Fields() []string {
	var out []string
	if p.Title != nil {
		out = append(out, "title")
	}
	if p.Author != nil {
		out = append(out, "author")
	}
	if p.Genre != nil {
		out = append(out, "genre")
	}
	if p.ISBN != nil {
		out = append(out, "isbn")
	}
	if p.Description != nil {
		out = append(out, "description")
	}
	if p.Copies != nil {
		out = append(out, "copies")
	}
	if p.Available != nil {
		out = append(out, "available")
	}
	return out
}

// Pagination is the list metadata reported by the server, or computed
// locally when paging on the client.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalBooks  int  `json:"totalBooks"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// BookPage is one cached result of the list endpoint.
type BookPage struct {
	Books      []Book
	Pagination *Pagination
}

// BorrowRecord is a created borrowing transaction.
type BorrowRecord struct {
	ID        string    `json:"_id"`
	Book      string    `json:"book"`
	Quantity  int       `json:"quantity"`
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BorrowRequest is the body of a borrow call.
type BorrowRequest struct {
	Book     string `json:"book"`
	Quantity int    `json:"quantity"`
	DueDate  string `json:"dueDate"`
}

// BorrowedBook is the book reference embedded in a summary row.
type BorrowedBook struct {
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

// BorrowSummaryItem aggregates borrowed quantity per book.
type BorrowSummaryItem struct {
	TotalQuantity int          `json:"totalQuantity"`
	Book          BorrowedBook `json:"book"`
}
