package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human-readable message.
type FieldErrors map[string]string

// Error joins every message in field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, fe[f])
	}
	return strings.Join(parts, "; ")
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// CollectFieldErrors converts a validator error into FieldErrors. messages is
// keyed by "field" or "field.tag"; the more specific key wins. Errors that are
// not validation errors are reported under the "_" key.
func CollectFieldErrors(err error, messages map[string]string) FieldErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg, ok = messages[field]
		}
		if !ok {
			msg = fmt.Sprintf("%s failed %q", field, fe.Tag())
		}
		out[field] = msg
	}
	return out
}

// BookForm is raw form input as typed by the user.
type BookForm struct {
	Title       string
	Author      string
	Genre       string
	ISBN        string
	Description string
	Copies      string
}

// FormFromBook seeds a form with the values of an existing book.
func FormFromBook(b Book) BookForm {
	return BookForm{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       string(b.Genre),
		ISBN:        b.ISBN,
		Description: b.Description,
		Copies:      strconv.Itoa(b.Copies),
	}
}

// DefaultForm is the blank create form.
func DefaultForm() BookForm {
	return BookForm{Genre: string(Genres[0]), Copies: "1"}
}

type bookRules struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre" validate:"oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY"`
	ISBN        string `json:"isbn" validate:"required"`
	Description string `json:"description"`
	Copies      int    `json:"copies" validate:"min=0"`
}

var bookMessages = map[string]string{
	"title":  "Title is required.",
	"author": "Author is required.",
	"genre":  "Genre must be one of the predefined values",
	"isbn":   "ISBN is required.",
	"copies": "Copies must be a positive number",
}

var bookValidator = NewValidator()

// ValidateBook maps raw form input to a create payload or per-field errors.
// The returned input always carries the derived availability flag.
func ValidateBook(form BookForm) (BookInput, FieldErrors) {
	rules := bookRules{
		Title:       strings.TrimSpace(form.Title),
		Author:      strings.TrimSpace(form.Author),
		Genre:       strings.TrimSpace(form.Genre),
		ISBN:        strings.TrimSpace(form.ISBN),
		Description: strings.TrimSpace(form.Description),
	}

	errs := FieldErrors{}
	copies, convErr := strconv.Atoi(strings.TrimSpace(form.Copies))
	if convErr != nil {
		errs["copies"] = bookMessages["copies"]
	}
	rules.Copies = copies

	for field, msg := range CollectFieldErrors(bookValidator.Struct(rules), bookMessages) {
		errs[field] = msg
	}
	if len(errs) > 0 {
		return BookInput{}, errs
	}

	in := BookInput{
		Title:       rules.Title,
		Author:      rules.Author,
		Genre:       Genre(rules.Genre),
		ISBN:        rules.ISBN,
		Description: rules.Description,
		Copies:      rules.Copies,
	}
	return in.WithDerivedAvailability(), nil
}
