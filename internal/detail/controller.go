// Package detail loads a single book and runs the create and edit forms.
package detail

import (
	"context"
	"errors"
	"sync"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/cache"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"go.uber.org/zap"
)

// Status is the load state of the current book.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	}
	return "idle"
}

// Source is the remote data client as seen by the detail view.
type Source interface {
	Book(ctx context.Context, id string) (catalog.Book, error)
	RefetchBook(ctx context.Context, id string) (catalog.Book, error)
	SubscribeBook(fn func(cache.Event)) (unsubscribe func())
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	ID         string
	Status     Status
	Book       catalog.Book
	Err        error
	ErrMessage string
	// Stale is set when the cached book was invalidated after loading.
	Stale bool
}

// NotFound reports whether the last load failed because the book does not
// exist.
func (s Snapshot) NotFound() bool {
	return s.Status == StatusError && errors.Is(s.Err, api.ErrNotFound)
}

// Controller fetches one book at a time. Responses for an identifier that
// is no longer current are dropped.
type Controller struct {
	src Source
	log *zap.Logger

	mu        sync.Mutex
	id        string
	status    Status
	book      catalog.Book
	err       error
	stale     bool
	gen       uint64
	observers map[int]func(Snapshot)
	nextObs   int

	unsubscribe func()
}

// New creates a controller subscribed to book cache changes. Call Close to
// release the subscription.
func New(src Source, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		src:       src,
		log:       log.With(zap.String("component", "detail")),
		observers: make(map[int]func(Snapshot)),
	}
	c.unsubscribe = src.SubscribeBook(c.onCacheEvent)
	return c
}

// Close detaches the controller from the cache.
func (c *Controller) Close() { c.unsubscribe() }

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{ID: c.id, Status: c.status, Book: c.book, Err: c.err, Stale: c.stale}
	if c.err != nil {
		s.ErrMessage = api.Message(c.err, api.DefaultErrorMessage)
	}
	return s
}

func (c *Controller) notifyLocked() {
	snap := c.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Load fetches the book with the given identifier, from cache when present.
func (c *Controller) Load(ctx context.Context, id string) (catalog.Book, error) {
	return c.load(ctx, id, c.src.Book)
}

// Refetch reloads the current book, bypassing the cache.
func (c *Controller) Refetch(ctx context.Context) (catalog.Book, error) {
	return c.load(ctx, c.Snapshot().ID, c.src.RefetchBook)
}

func (c *Controller) load(ctx context.Context, id string, fetch func(context.Context, string) (catalog.Book, error)) (catalog.Book, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if id != c.id {
		c.book = catalog.Book{}
	}
	c.id, c.status, c.err = id, StatusLoading, nil
	c.notifyLocked()

	b, err := fetch(ctx, id)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("discarding stale response", zap.String("book", id))
		return b, err
	}
	if err != nil {
		c.status, c.err = StatusError, err
		c.log.Warn("book load failed", zap.String("book", id), zap.Error(err))
	} else {
		c.status, c.book, c.stale = StatusReady, b, false
	}
	c.notifyLocked()
	return b, err
}

func (c *Controller) onCacheEvent(ev cache.Event) {
	c.mu.Lock()
	if ev.Kind != cache.Invalidated || ev.Key != c.id || c.status != StatusReady {
		c.mu.Unlock()
		return
	}
	c.stale = true
	c.notifyLocked()
}
