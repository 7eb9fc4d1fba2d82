// Package query is the remote data client: it serves endpoint results from
// the request cache, deduplicates identical in-flight requests, and
// invalidates cached results after mutations.
package query

import (
	"context"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/cache"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Backend is the REST surface the client needs. *api.Client implements it.
type Backend interface {
	ListBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error)
	GetBook(ctx context.Context, id string) (*catalog.Book, error)
	CreateBook(ctx context.Context, in catalog.BookInput) (*catalog.Book, error)
	UpdateBook(ctx context.Context, id string, p catalog.BookPatch) (*catalog.Book, error)
	DeleteBook(ctx context.Context, id string) error
	BorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error)
	Borrow(ctx context.Context, req catalog.BorrowRequest) (*catalog.BorrowRecord, error)
}

const summaryKey = "summary"

// Client combines a Backend with per-endpoint cache stores.
type Client struct {
	backend Backend
	log     *zap.Logger
	group   singleflight.Group

	// Lists caches list results keyed by ListQueryArgs.Key.
	Lists *cache.Store[catalog.BookPage]
	// Books caches single books keyed by ID.
	Books *cache.Store[catalog.Book]
	// Summary caches the borrow summary under a single key.
	Summary *cache.Store[[]catalog.BorrowSummaryItem]
}

// New creates a Client. keepUnused is how long an entry nobody reads stays
// cached; zero keeps entries until invalidated.
func New(backend Backend, keepUnused time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		backend: backend,
		log:     log.With(zap.String("component", "query")),
		Lists:   cache.New[catalog.BookPage]("books", keepUnused, cache.WithLogger(log)),
		Books:   cache.New[catalog.Book]("book", keepUnused, cache.WithLogger(log)),
		Summary: cache.New[[]catalog.BorrowSummaryItem]("borrow-summary", keepUnused, cache.WithLogger(log)),
	}
}

// fetch runs fn once per key among concurrent callers and stores the
// result. Callers whose context ends first return early; the shared call
// keeps running for the others.
func fetch[V any](ctx context.Context, c *Client, store *cache.Store[V], key string, fn func(context.Context) (V, error)) (V, error) {
	ch := c.group.DoChan(store.Name()+":"+key, func() (interface{}, error) {
		// Detached so one caller's cancellation does not fail the others.
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		store.Set(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.log.Debug("request shared", zap.String("store", store.Name()), zap.String("key", key))
		}
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// ListBooks returns the list result for args, from cache when present.
func (c *Client) ListBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error) {
	if page, ok := c.Lists.Get(args.Key()); ok {
		return page, nil
	}
	return c.RefetchBooks(ctx, args)
}

// RefetchBooks fetches the list result for args, bypassing the cache.
func (c *Client) RefetchBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error) {
	return fetch(ctx, c, c.Lists, args.Key(), func(ctx context.Context) (catalog.BookPage, error) {
		return c.backend.ListBooks(ctx, args)
	})
}

// Book returns one book, from cache when present.
func (c *Client) Book(ctx context.Context, id string) (catalog.Book, error) {
	if b, ok := c.Books.Get(id); ok {
		return b, nil
	}
	return c.RefetchBook(ctx, id)
}

// RefetchBook fetches one book, bypassing the cache.
func (c *Client) RefetchBook(ctx context.Context, id string) (catalog.Book, error) {
	return fetch(ctx, c, c.Books, id, func(ctx context.Context) (catalog.Book, error) {
		b, err := c.backend.GetBook(ctx, id)
		if err != nil {
			return catalog.Book{}, err
		}
		return *b, nil
	})
}

// CreateBook creates a book and invalidates every cached book result.
func (c *Client) CreateBook(ctx context.Context, in catalog.BookInput) (*catalog.Book, error) {
	b, err := c.backend.CreateBook(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidateBooks()
	return b, nil
}

// UpdateBook sends p and invalidates every cached book result.
func (c *Client) UpdateBook(ctx context.Context, id string, p catalog.BookPatch) (*catalog.Book, error) {
	b, err := c.backend.UpdateBook(ctx, id, p)
	if err != nil {
		return nil, err
	}
	c.invalidateBooks()
	return b, nil
}

// DeleteBook issues exactly one delete request. Cached lists are left
// alone so an optimistic patch stays in place; only the detail entry of
// the deleted book is dropped.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	if err := c.backend.DeleteBook(ctx, id); err != nil {
		return err
	}
	c.Books.Invalidate(id)
	return nil
}

// PatchBooks applies d to the cached list result for args.
func (c *Client) PatchBooks(args catalog.ListQueryArgs, d cache.Delta[catalog.BookPage]) *cache.Patch[catalog.BookPage] {
	return c.Lists.Patch(args.Key(), d)
}

// BorrowSummary returns the borrow summary, from cache when present.
func (c *Client) BorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error) {
	if items, ok := c.Summary.Get(summaryKey); ok {
		return items, nil
	}
	return c.RefetchBorrowSummary(ctx)
}

// RefetchBorrowSummary fetches the borrow summary, bypassing the cache.
func (c *Client) RefetchBorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error) {
	return fetch(ctx, c, c.Summary, summaryKey, c.backend.BorrowSummary)
}

// Borrow records a borrowing and invalidates the summary. Book results
// are invalidated too because the backend adjusts copy counts.
func (c *Client) Borrow(ctx context.Context, req catalog.BorrowRequest) (*catalog.BorrowRecord, error) {
	rec, err := c.backend.Borrow(ctx, req)
	if err != nil {
		return nil, err
	}
	c.Summary.Invalidate(summaryKey)
	c.invalidateBooks()
	return rec, nil
}

func (c *Client) invalidateBooks() {
	c.Lists.InvalidateAll()
	c.Books.InvalidateAll()
}

// CachedBooks returns the cached list result for args without fetching.
func (c *Client) CachedBooks(args catalog.ListQueryArgs) (catalog.BookPage, bool) {
	return c.Lists.Get(args.Key())
}

// SubscribeBooks registers fn for changes to any cached list result.
func (c *Client) SubscribeBooks(fn func(cache.Event)) (unsubscribe func()) {
	return c.Lists.Subscribe(fn)
}

// SubscribeBook registers fn for changes to any cached single-book result.
func (c *Client) SubscribeBook(fn func(cache.Event)) (unsubscribe func()) {
	return c.Books.Subscribe(fn)
}

// SubscribeSummary registers fn for changes to the cached borrow summary.
func (c *Client) SubscribeSummary(fn func(cache.Event)) (unsubscribe func()) {
	return c.Summary.Subscribe(fn)
}
