package catalog

import "slices"

// RemoveBook is a reversible removal of one book from a cached page. Apply
// records the removed row and its position; Revert puts it back at that
// position in whatever the page looks like at revert time, so concurrent
// removals of other books are left alone.
type RemoveBook struct {
	ID string

	removed *Book
	index   int
}

// NewRemoveBook returns a removal delta for the book with the given ID.
func NewRemoveBook(id string) *RemoveBook {
	return &RemoveBook{ID: id, index: -1}
}

// Apply removes the book from the page. A page without the book is returned
// unchanged and Revert becomes a no-op.
func (d *RemoveBook) Apply(p BookPage) BookPage {
	i := IndexOf(p.Books, d.ID)
	if i < 0 {
		return p
	}
	b := p.Books[i]
	d.removed = &b
	d.index = i
	p.Books = slices.Delete(slices.Clone(p.Books), i, i+1)
	return p
}

// Revert re-inserts the removed book at its original index, clamped to the
// current length. Pages that already contain the book are left unchanged.
func (d *RemoveBook) Revert(p BookPage) BookPage {
	if d.removed == nil || IndexOf(p.Books, d.ID) >= 0 {
		return p
	}
	i := min(d.index, len(p.Books))
	p.Books = slices.Insert(slices.Clone(p.Books), i, *d.removed)
	return p
}

// Removed reports whether Apply found and removed the book.
func (d *RemoveBook) Removed() bool {
	return d.removed != nil
}
