package listing

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

// ErrPageSize is returned by SetPageSize for sizes outside PageSizes.
var ErrPageSize = errors.New("unsupported page size")

// Source is the remote data client as seen by the list view.
type Source interface {
	ListBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error)
	RefetchBooks(ctx context.Context, args catalog.ListQueryArgs) (catalog.BookPage, error)
	CachedBooks(args catalog.ListQueryArgs) (catalog.BookPage, bool)
	SubscribeBooks(fn func(cache.Event)) (unsubscribe func())
}

// Config is the initial controller state.
type Config struct {
	Mode     Mode
	PageSize int
	Sort     Sort
}

// Controller owns the page and sort state of the books list. All methods
// are safe for concurrent use; network calls run without the lock held.
type Controller struct {
	src Source
	log *zap.Logger

	mu        sync.Mutex
	mode      Mode
	pageIndex int
	pageSize  int
	sort      Sort
	status    Status
	page      catalog.BookPage
	err       error
	stale     bool
	gen       uint64
	observers map[int]func(Snapshot)
	nextObs   int

	unsubscribe func()
}

// New creates a controller and subscribes it to list cache changes. Call
// Close to release the subscription.
func New(src Source, cfg Config, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if !ValidPageSize(cfg.PageSize) {
		cfg.PageSize = DefaultPageSize
	}
	c := &Controller{
		src:       src,
		log:       log.With(zap.String("component", "listing")),
		mode:      cfg.Mode,
		pageSize:  cfg.PageSize,
		sort:      cfg.Sort,
		observers: make(map[int]func(Snapshot)),
	}
	c.unsubscribe = src.SubscribeBooks(c.onCacheEvent)
	return c
}

// Close detaches the controller from the cache.
func (c *Controller) Close() {
	c.unsubscribe()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously on the goroutine that made the change.
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

// Args returns the request arguments for the current state.
func (c *Controller) Args() catalog.ListQueryArgs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.argsLocked()
}

func (c *Controller) argsLocked() catalog.ListQueryArgs {
	if c.mode == ClientMode {
		return catalog.ListQueryArgs{}
	}
	return catalog.ListQueryArgs{
		Page:      c.pageIndex + 1,
		Limit:     c.pageSize,
		SortBy:    c.sort.Field,
		SortOrder: c.sort.Order(),
	}
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Mode:      c.mode,
		Status:    c.status,
		PageIndex: c.pageIndex,
		PageSize:  c.pageSize,
		Sort:      c.sort,
		Args:      c.argsLocked(),
		Err:       c.err,
		Stale:     c.stale,
	}
	if c.err != nil {
		s.ErrMessage = api.Message(c.err, api.DefaultErrorMessage)
	}
	if c.status == StatusReady {
		s.Rows, s.Pagination = normalize(c.mode, c.page, c.pageIndex, c.pageSize, c.sort)
	}
	return s
}

// pageCountLocked returns the known page count, or 0 before the first load.
func (c *Controller) pageCountLocked() int {
	if c.status != StatusReady {
		return 0
	}
	_, meta := normalize(c.mode, c.page, c.pageIndex, c.pageSize, c.sort)
	return max(meta.TotalPages, 1)
}

// change runs fn under the lock, refreshes the view from the cache when the
// request arguments moved, and notifies observers.
func (c *Controller) change(fn func()) {
	c.mu.Lock()
	before := c.argsLocked()
	fn()
	after := c.argsLocked()
	if before != after {
		c.gen++
		c.stale = false
		if page, ok := c.src.CachedBooks(after); ok {
			c.page, c.status, c.err = page, StatusReady, nil
		} else {
			c.page, c.status, c.err = catalog.BookPage{}, StatusIdle, nil
		}
	}
	c.notifyLocked()
}

// notifyLocked releases the lock and calls every observer.
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

// SetPageIndex moves to the 0-based page i, clamped to the known range.
func (c *Controller) SetPageIndex(i int) {
	c.change(func() { c.setIndexLocked(i) })
}

func (c *Controller) setIndexLocked(i int) {
	if n := c.pageCountLocked(); n > 0 {
		i = min(i, n-1)
	}
	c.pageIndex = max(i, 0)
}

// NextPage moves forward one page.
func (c *Controller) NextPage() {
	c.change(func() { c.setIndexLocked(c.pageIndex + 1) })
}

// PrevPage moves back one page.
func (c *Controller) PrevPage() {
	c.change(func() { c.setIndexLocked(c.pageIndex - 1) })
}

// FirstPage moves to the first page.
func (c *Controller) FirstPage() { c.SetPageIndex(0) }

// LastPage moves to the last known page.
func (c *Controller) LastPage() {
	c.change(func() {
		if n := c.pageCountLocked(); n > 0 {
			c.pageIndex = n - 1
		}
	})
}

// SetPageSize changes the rows per page, keeping the first visible row on
// screen.
func (c *Controller) SetPageSize(n int) error {
	if !ValidPageSize(n) {
		return fmt.Errorf("%w: %d (want one of %v)", ErrPageSize, n, PageSizes)
	}
	c.change(func() {
		c.pageIndex = c.pageIndex * c.pageSize / n
		c.pageSize = n
	})
	return nil
}

// ToggleSort cycles field through asc, desc and unset and returns to the
// first page.
func (c *Controller) ToggleSort(field string) {
	c.change(func() {
		c.sort = c.sort.Next(field)
		c.pageIndex = 0
	})
}

// SetSort replaces the sort and returns to the first page.
func (c *Controller) SetSort(s Sort) {
	c.change(func() {
		c.sort = s
		c.pageIndex = 0
	})
}

// SetMode switches between server and client paging and returns to the
// first page.
func (c *Controller) SetMode(m Mode) {
	c.change(func() {
		c.mode = m
		c.pageIndex = 0
	})
}

// Load fetches the current view. A cached result is shown immediately
// without passing through the loading state.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	args := c.argsLocked()
	if page, ok := c.src.CachedBooks(args); ok {
		c.gen++
		c.status, c.page, c.err, c.stale = StatusReady, page, nil, false
		c.clampLocked()
		c.notifyLocked()
		return nil
	}
	c.mu.Unlock()
	return c.load(ctx, c.src.ListBooks)
}

// Refetch fetches the current view, bypassing the cache.
func (c *Controller) Refetch(ctx context.Context) error {
	return c.load(ctx, c.src.RefetchBooks)
}

func (c *Controller) load(ctx context.Context, fetch func(context.Context, catalog.ListQueryArgs) (catalog.BookPage, error)) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	args := c.argsLocked()
	c.status, c.err = StatusLoading, nil
	c.notifyLocked()

	page, err := fetch(ctx, args)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("discarding stale response", zap.String("args", args.Key()))
		return nil
	}
	if err != nil {
		c.status, c.err = StatusError, err
		c.log.Warn("list load failed", zap.String("args", args.Key()), zap.Error(err))
	} else {
		// Patches applied while the request was in flight live in the cache.
		if cached, ok := c.src.CachedBooks(args); ok {
			page = cached
		}
		c.status, c.page, c.stale = StatusReady, page, false
		c.clampLocked()
	}
	c.notifyLocked()
	return err
}

// clampLocked pulls the page index back into range after the page count
// shrank.
func (c *Controller) clampLocked() {
	if c.mode != ClientMode {
		return
	}
	if n := c.pageCountLocked(); c.pageIndex > n-1 {
		c.pageIndex = max(n-1, 0)
	}
}

// onCacheEvent mirrors optimistic patches and undos into the view and
// flags invalidations.
func (c *Controller) onCacheEvent(ev cache.Event) {
	c.mu.Lock()
	if ev.Key != c.argsLocked().Key() {
		c.mu.Unlock()
		return
	}
	switch ev.Kind {
	case cache.Updated:
		if c.status == StatusLoading {
			// The in-flight load will publish this result itself.
			c.mu.Unlock()
			return
		}
		page, ok := c.src.CachedBooks(c.argsLocked())
		if !ok {
			c.mu.Unlock()
			return
		}
		c.page, c.status, c.err = page, StatusReady, nil
		c.clampLocked()
	case cache.Invalidated:
		c.stale = true
	}
	c.notifyLocked()
}
