package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
)

// ListBooks fetches one view of the books collection. Zero args request the
// full collection without query parameters. Pagination is nil when the
// server did not report it.
func (c *Client) ListBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error) {
	var env envelope[[]catalog.Book]
	if err := c.doJSON(ctx, http.MethodGet, "api/books", args.Values(), nil, &env); err != nil {
		return catalog.BookPage{}, err
	}
	books := env.Data
	if books == nil {
		books = []catalog.Book{}
	}
	return catalog.BookPage{Books: books, Pagination: env.Pagination}, nil
}

// GetBook fetches a single book.
func (c *Client) GetBook(ctx context.Context, id string) (*catalog.Book, error) {
	var env envelope[*catalog.Book]
	if err := c.doJSON(ctx, http.MethodGet, "api/books/"+escape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("book %s: empty response", id)
	}
	return env.Data, nil
}

// CreateBook posts a new book. Availability is re-derived from the copy
// count before sending.
func (c *Client) CreateBook(ctx context.Context, in catalog.BookInput) (*catalog.Book, error) {
	var env envelope[*catalog.Book]
	if err := c.doJSON(ctx, http.MethodPost, "api/books", nil, in.WithDerivedAvailability(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// UpdateBook sends the fields set on p.
func (c *Client) UpdateBook(ctx context.Context, id string, p catalog.BookPatch) (*catalog.Book, error) {
	var env envelope[*catalog.Book]
	if err := c.doJSON(ctx, http.MethodPut, "api/books/"+escape(id), nil, p, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DeleteBook deletes a book. The response body is ignored.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "api/books/"+escape(id), nil, nil, nil)
}
