// Package mutation applies book deletions optimistically: the row leaves the
// cached list before the request is sent and comes back if it fails.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/cache"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"go.uber.org/zap"
)

// ErrDeletePending is returned when the same book is already being deleted
// from the same list view.
var ErrDeletePending = errors.New("delete already in progress")

// Remote is the part of the remote data client the deleter needs.
type Remote interface {
	DeleteBook(ctx context.Context, id string) error
	PatchBooks(args catalog.ListQueryArgs, d cache.Delta[catalog.BookPage]) *cache.Patch[catalog.BookPage]
}

type pendingKey struct {
	id   string
	args string
}

// Deleter runs optimistic deletes. It is safe for concurrent use; each
// delete owns its own patch and undoing one never touches another.
type Deleter struct {
	remote Remote
	notify Notifier
	log    *zap.Logger

	mu      sync.Mutex
	pending map[pendingKey]struct{}
}

// NewDeleter creates a Deleter. A nil notifier discards notifications.
func NewDeleter(remote Remote, notify Notifier, log *zap.Logger) *Deleter {
	if notify == nil {
		notify = NotifierFunc(func(Notification) {})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Deleter{
		remote:  remote,
		notify:  notify,
		log:     log.With(zap.String("component", "mutation")),
		pending: make(map[pendingKey]struct{}),
	}
}

// Pending reports whether a delete of id from the view addressed by args
// is in flight.
func (d *Deleter) Pending(id string, args catalog.ListQueryArgs) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[pendingKey{id, args.Key()}]
	return ok
}

// Delete removes book from the cached list for args, then sends exactly one
// delete request. On failure the removal is undone and a failure
// notification is sent; on success the removal stays.
func (d *Deleter) Delete(ctx context.Context, book catalog.Book, args catalog.ListQueryArgs) error {
	key := pendingKey{book.ID, args.Key()}
	d.mu.Lock()
	if _, busy := d.pending[key]; busy {
		d.mu.Unlock()
		return ErrDeletePending
	}
	d.pending[key] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
	}()

	log := d.log.With(zap.String("book", book.ID), zap.String("args", key.args))
	patch := d.remote.PatchBooks(args, catalog.NewRemoveBook(book.ID))
	committed := false
	defer func() {
		if !committed {
			patch.Undo()
		}
	}()

	if err := d.remote.DeleteBook(ctx, book.ID); err != nil {
		patch.Undo()
		msg := api.Message(err, api.DefaultErrorMessage)
		log.Warn("delete failed, restored row", zap.String("patch", patch.ID), zap.Error(err))
		d.notify.Notify(Notification{
			Kind:    Failure,
			Title:   TitleDeleteFailed,
			BookID:  book.ID,
			Book:    book.Title,
			Message: msg,
		})
		return fmt.Errorf("deleting %q: %w", book.Title, err)
	}
	committed = true
	log.Info("deleted", zap.Bool("optimistic", patch.Applied()))
	d.notify.Notify(Notification{Kind: Success, Title: TitleDeleted, BookID: book.ID, Book: book.Title})
	return nil
}
