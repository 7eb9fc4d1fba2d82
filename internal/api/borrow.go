package api

import (
	"context"
	"net/http"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
)

// BorrowSummary fetches the aggregated borrowed quantity per book.
func (c *Client) BorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error) {
	var env envelope[[]catalog.BorrowSummaryItem]
	if err := c.doJSON(ctx, http.MethodGet, "api/borrow", nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []catalog.BorrowSummaryItem{}, nil
	}
	return env.Data, nil
}

// Borrow records a borrowing transaction.
func (c *Client) Borrow(ctx context.Context, req catalog.BorrowRequest) (*catalog.BorrowRecord, error) {
	var env envelope[*catalog.BorrowRecord]
	if err := c.doJSON(ctx, http.MethodPost, "api/borrow", nil, req, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
