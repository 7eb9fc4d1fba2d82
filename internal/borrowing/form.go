// Package borrowing records borrow transactions and presents the borrow
// summary.
package borrowing

import (
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/go-playground/validator/v10"
)

// DateLayouts are the accepted due-date input formats, tried in order.
// Date-only values mean local midnight.
var DateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04"}

// isoMillis matches the wire format of due dates.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Form is raw borrow input as typed by the user.
type Form struct {
	BookID   string
	Quantity string
	DueDate  string
}

// DefaultForm returns a form for bookID with one copy due tomorrow.
func DefaultForm(bookID string, now time.Time) Form {
	return Form{
		BookID:   bookID,
		Quantity: "1",
		DueDate:  now.AddDate(0, 0, 1).Format("2006-01-02"),
	}
}

type borrowRules struct {
	BookID   string     `json:"book" validate:"required"`
	Quantity int        `json:"quantity" validate:"min=1"`
	DueDate  *time.Time `json:"dueDate" validate:"required,future"`
}

var borrowMessages = map[string]string{
	"book":             "Book ID is required",
	"quantity":         "Quantity must be at least 1",
	"dueDate.required": "Invalid date format",
	"dueDate.future":   "Due date must be in the future",
}

// Validator checks borrow forms against an injectable clock.
type Validator struct {
	now func() time.Time
	v   *validator.Validate
}

// NewValidator creates a Validator. A nil clock means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	bv := &Validator{now: now, v: catalog.NewValidator()}
	_ = bv.v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(bv.now())
	})
	return bv
}

// Validate maps raw input to a borrow request or per-field errors. The due
// date is rendered as an ISO-8601 UTC timestamp.
func (bv *Validator) Validate(f Form) (catalog.BorrowRequest, catalog.FieldErrors) {
	rules := borrowRules{BookID: strings.TrimSpace(f.BookID)}
	errs := catalog.FieldErrors{}

	qty, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil {
		errs["quantity"] = borrowMessages["quantity"]
	}
	rules.Quantity = qty
	if due, ok := ParseDueDate(f.DueDate); ok {
		rules.DueDate = &due
	}

	for field, msg := range catalog.CollectFieldErrors(bv.v.Struct(rules), borrowMessages) {
		errs[field] = msg
	}
	if len(errs) > 0 {
		return catalog.BorrowRequest{}, errs
	}
	return catalog.BorrowRequest{
		Book:     rules.BookID,
		Quantity: rules.Quantity,
		DueDate:  rules.DueDate.UTC().Format(isoMillis),
	}, nil
}

// ParseDueDate parses s with the first matching layout in DateLayouts.
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
