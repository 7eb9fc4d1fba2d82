package borrowing

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"go.uber.org/zap"
)

// Writer is the borrow side of the remote data client.
type Writer interface {
	Borrow(ctx context.Context, req catalog.BorrowRequest) (*catalog.BorrowRecord, error)
}

// Controller submits borrow forms.
type Controller struct {
	w        Writer
	validate *Validator
	log      *zap.Logger
}

// NewController creates a Controller. A nil clock means time.Now.
func NewController(w Writer, now func() time.Time, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{w: w, validate: NewValidator(now), log: log.With(zap.String("component", "borrow"))}
}

// Borrow validates f and records the transaction. Field errors are returned
// as catalog.FieldErrors and never reach the network.
func (c *Controller) Borrow(ctx context.Context, f Form) (*catalog.BorrowRecord, error) {
	req, errs := c.validate.Validate(f)
	if errs != nil {
		return nil, errs
	}
	rec, err := c.w.Borrow(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("borrowing %s: %w", req.Book, err)
	}
	c.log.Info("borrowed", zap.String("book", req.Book), zap.Int("quantity", req.Quantity), zap.String("due", req.DueDate))
	return rec, nil
}
