package catalog

import "strings"

// InputFromBook strips the identifier from b and re-derives availability.
// Text fields are trimmed the way ValidateBook trims form input, so an
// untouched form compares equal to its snapshot.
func InputFromBook(b Book) BookInput {
	return BookInput{
		Title:       strings.TrimSpace(b.Title),
		Author:      strings.TrimSpace(b.Author),
		Genre:       Genre(strings.TrimSpace(string(b.Genre))),
		ISBN:        strings.TrimSpace(b.ISBN),
		Description: strings.TrimSpace(b.Description),
		Copies:      b.Copies,
	}.WithDerivedAvailability()
}

// Diff returns the fields of current that differ from original. When at least
// one field changed, the patch also carries the availability derived from the
// current copy count. An unchanged form yields an empty patch.
func Diff(original, current BookInput) BookPatch {
	var p BookPatch
	if current.Title != original.Title {
		p.Title = ptr(current.Title)
	}
	if current.Author != original.Author {
		p.Author = ptr(current.Author)
	}
	if current.Genre != original.Genre {
		p.Genre = ptr(current.Genre)
	}
	if current.ISBN != original.ISBN {
		p.ISBN = ptr(current.ISBN)
	}
	if current.Description != original.Description {
		p.Description = ptr(current.Description)
	}
	if current.Copies != original.Copies {
		p.Copies = ptr(current.Copies)
	}
	if p.Empty() {
		return p
	}
	p.Available = ptr(IsAvailable(current.Copies))
	return p
}

// Empty reports whether p changes no book field. Availability alone does not
// count as a change.
func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil &&
		p.ISBN == nil && p.Description == nil && p.Copies == nil
}

// ApplyPatch returns b with every field set on p applied.
func ApplyPatch(b Book, p BookPatch) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Copies != nil {
		b.Copies = *p.Copies
	}
	b.Available = IsAvailable(b.Copies)
	return b
}

func ptr[T any](v T) *T { return &v }
