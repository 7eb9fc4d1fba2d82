package borrowing

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/cache"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"go.uber.org/zap"
)

// Summary columns.
const (
	SortTitle    = "title"
	SortISBN     = "isbn"
	SortQuantity = "quantity"
)

// SummaryFields lists the sortable summary columns in table order.
var SummaryFields = []string{SortTitle, SortISBN, SortQuantity}

// SummarySource is the remote data client as seen by the summary view.
type SummarySource interface {
	BorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error)
	RefetchBorrowSummary(ctx context.Context) ([]catalog.BorrowSummaryItem, error)
	SubscribeSummary(fn func(cache.Event)) (unsubscribe func())
}

// SummarySnapshot is an immutable view of the summary state.
type SummarySnapshot struct {
	Status     listing.Status
	Rows       []catalog.BorrowSummaryItem
	Sort       listing.Sort
	Err        error
	ErrMessage string
	Stale      bool
}

// Empty reports a successful load with no rows.
func (s SummarySnapshot) Empty() bool {
	return s.Status == listing.StatusReady && len(s.Rows) == 0
}

// TotalQuantity sums the borrowed quantity of every row.
func (s SummarySnapshot) TotalQuantity() int {
	n := 0
	for _, r := range s.Rows {
		n += r.TotalQuantity
	}
	return n
}

// Summary loads the borrow summary and sorts it locally.
type Summary struct {
	src SummarySource
	log *zap.Logger

	mu     sync.Mutex
	status listing.Status
	items  []catalog.BorrowSummaryItem
	sort   listing.Sort
	err    error
	stale  bool
	gen    uint64

	observers map[int]func(SummarySnapshot)
	nextObs   int

	unsubscribe func()
}

// NewSummary creates a summary view subscribed to cache changes.
func NewSummary(src SummarySource, log *zap.Logger) *Summary {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Summary{
		src:       src,
		log:       log.With(zap.String("component", "borrow-summary")),
		observers: make(map[int]func(SummarySnapshot)),
	}
	s.unsubscribe = src.SubscribeSummary(s.onCacheEvent)
	return s
}

// Close detaches the summary from the cache.
func (s *Summary) Close() { s.unsubscribe() }

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Summary) Subscribe(fn func(SummarySnapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// notifyLocked releases the lock and calls every observer.
func (s *Summary) notifyLocked() {
	snap := s.snapshotLocked()
	fns := make([]func(SummarySnapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Load fetches the summary, from cache when present.
func (s *Summary) Load(ctx context.Context) error {
	return s.load(ctx, s.src.BorrowSummary)
}

// Refetch fetches the summary, bypassing the cache.
func (s *Summary) Refetch(ctx context.Context) error {
	return s.load(ctx, s.src.RefetchBorrowSummary)
}

func (s *Summary) load(ctx context.Context, fetch func(context.Context) ([]catalog.BorrowSummaryItem, error)) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.status, s.err = listing.StatusLoading, nil
	s.notifyLocked()

	items, err := fetch(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.status, s.err = listing.StatusError, err
		s.log.Warn("summary load failed", zap.Error(err))
	} else {
		s.status, s.items, s.stale = listing.StatusReady, items, false
	}
	s.notifyLocked()
	return err
}

// ToggleSort cycles field through asc, desc and unset.
func (s *Summary) ToggleSort(field string) {
	s.mu.Lock()
	s.sort = s.sort.Next(field)
	s.notifyLocked()
}

// SetSort replaces the sort.
func (s *Summary) SetSort(sort listing.Sort) {
	s.mu.Lock()
	s.sort = sort
	s.notifyLocked()
}

// Snapshot returns the sorted rows and status.
func (s *Summary) Snapshot() SummarySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Summary) snapshotLocked() SummarySnapshot {
	snap := SummarySnapshot{Status: s.status, Sort: s.sort, Err: s.err, Stale: s.stale}
	if s.err != nil {
		snap.ErrMessage = api.Message(s.err, api.DefaultErrorMessage)
	}
	if s.status == listing.StatusReady {
		snap.Rows = SortSummary(s.items, s.sort)
	}
	return snap
}

func (s *Summary) onCacheEvent(ev cache.Event) {
	if ev.Kind != cache.Invalidated {
		return
	}
	s.mu.Lock()
	s.stale = true
	s.notifyLocked()
}

// SortSummary returns a stably sorted copy of items. Strings compare
// case-insensitively.
func SortSummary(items []catalog.BorrowSummaryItem, sort listing.Sort) []catalog.BorrowSummaryItem {
	out := slices.Clone(items)
	var compare func(a, b catalog.BorrowSummaryItem) int
	switch sort.Field {
	case SortTitle:
		compare = func(a, b catalog.BorrowSummaryItem) int {
			return strings.Compare(strings.ToLower(a.Book.Title), strings.ToLower(b.Book.Title))
		}
	case SortISBN:
		compare = func(a, b catalog.BorrowSummaryItem) int {
			return strings.Compare(strings.ToLower(a.Book.ISBN), strings.ToLower(b.Book.ISBN))
		}
	case SortQuantity:
		compare = func(a, b catalog.BorrowSummaryItem) int { return cmp.Compare(a.TotalQuantity, b.TotalQuantity) }
	default:
		return out
	}
	slices.SortStableFunc(out, func(a, b catalog.BorrowSummaryItem) int {
		if sort.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}
