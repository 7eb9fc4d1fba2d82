package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"go.uber.org/zap"
)

// ErrNotSeeded is returned by EditSession.Submit before a book was loaded.
var ErrNotSeeded = errors.New("edit form has not been loaded")

// Outcome is what a form submission did.
type Outcome int

const (
	// Invalid means validation failed and nothing was sent.
	Invalid Outcome = iota
	// Unchanged means no field differed from the loaded book; nothing was sent.
	Unchanged
	// Updated means the changed fields were sent.
	Updated
	// Created means a new book was posted.
	Created
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Created:
		return "created"
	}
	return "invalid"
}

// Result describes a submission.
type Result struct {
	Outcome Outcome
	Book    *catalog.Book
	Patch   catalog.BookPatch
	Errors  catalog.FieldErrors
}

// Writer is the write side of the remote data client.
type Writer interface {
	CreateBook(ctx context.Context, in catalog.BookInput) (*catalog.Book, error)
	UpdateBook(ctx context.Context, id string, p catalog.BookPatch) (*catalog.Book, error)
}

// EditSession holds the edit form of one book. The form is seeded from
// the first successful load only; later loads leave the user's edits and
// the comparison snapshot alone.
type EditSession struct {
	w   Writer
	log *zap.Logger

	mu       sync.Mutex
	id       string
	original catalog.BookInput
	form     catalog.BookForm
	seeded   bool
}

// NewEditSession creates an unseeded session.
func NewEditSession(w Writer, log *zap.Logger) *EditSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditSession{w: w, log: log.With(zap.String("component", "edit"))}
}

// Seed takes the snapshot of b. It reports false if the session was
// already seeded.
func (s *EditSession) Seed(b catalog.Book) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return false
	}
	s.id = b.ID
	s.original = catalog.InputFromBook(b)
	s.form = catalog.FormFromBook(b)
	s.seeded = true
	return true
}

// Seeded reports whether a snapshot was taken.
func (s *EditSession) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// ID returns the identifier of the book being edited.
func (s *EditSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Form returns the initial form values.
func (s *EditSession) Form() catalog.BookForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit validates form, compares it with the snapshot and sends only the
// changed fields plus the recomputed availability. An unchanged form makes
// no request.
func (s *EditSession) Submit(ctx context.Context, form catalog.BookForm) (Result, error) {
	s.mu.Lock()
	if !s.seeded {
		s.mu.Unlock()
		return Result{}, ErrNotSeeded
	}
	id, original := s.id, s.original
	s.mu.Unlock()

	in, errs := catalog.ValidateBook(form)
	if errs != nil {
		return Result{Outcome: Invalid, Errors: errs}, errs
	}
	patch := catalog.Diff(original, in)
	if patch.Empty() {
		s.log.Debug("no changes", zap.String("book", id))
		return Result{Outcome: Unchanged}, nil
	}

	b, err := s.w.UpdateBook(ctx, id, patch)
	if err != nil {
		return Result{Patch: patch}, fmt.Errorf("updating book %s: %w", id, err)
	}
	s.mu.Lock()
	s.original = in
	s.form = form
	s.mu.Unlock()
	s.log.Info("updated", zap.String("book", id), zap.Strings("fields", patch.Fields()))
	return Result{Outcome: Updated, Book: b, Patch: patch}, nil
}

// CreateSession holds the create form.
type CreateSession struct {
	w   Writer
	log *zap.Logger
}

// NewCreateSession creates a create form session.
func NewCreateSession(w Writer, log *zap.Logger) *CreateSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &CreateSession{w: w, log: log.With(zap.String("component", "create"))}
}

// Form returns the blank form.
func (s *CreateSession) Form() catalog.BookForm {
	return catalog.DefaultForm()
}

// Submit validates form and posts every field plus the derived
// availability.
func (s *CreateSession) Submit(ctx context.Context, form catalog.BookForm) (Result, error) {
	in, errs := catalog.ValidateBook(form)
	if errs != nil {
		return Result{Outcome: Invalid, Errors: errs}, errs
	}
	b, err := s.w.CreateBook(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("creating book: %w", err)
	}
	s.log.Info("created", zap.String("title", in.Title))
	return Result{Outcome: Created, Book: b}, nil
}
