// Package cache holds the in-memory request cache shared by the list and
// detail views. Entries are keyed by the normalized request arguments and
// can be patched in place with reversible deltas.
package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// EventKind says what happened to an entry.
type EventKind int

const (
	// Updated means the entry has a new value (fetch, patch or undo).
	Updated EventKind = iota
	// Invalidated means the entry was dropped and must be refetched.
	Invalidated
)

func (k EventKind) String() string {
	if k == Invalidated {
		return "invalidated"
	}
	return "updated"
}

// Event is delivered to subscribers after every change.
type Event struct {
	Kind EventKind
	Key  string
}

// Entry is one cached value.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// Store caches values of one endpoint. Unused entries expire after the
// keep-unused duration; reads extend it. It is safe for concurrent use.
type Store[V any] struct {
	name  string
	log   *zap.Logger
	now   func() time.Time
	mu    sync.Mutex
	items *ttlcache.Cache[string, Entry[V]]

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	log *zap.Logger
	now func() time.Time
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a store. A zero keepUnused keeps entries until invalidated.
func New[V any](name string, keepUnused time.Duration, opts ...Option) *Store[V] {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Store[V]{
		name: name,
		log:  o.log.With(zap.String("component", "cache"), zap.String("store", name)),
		now:  o.now,
		items: ttlcache.New[string, Entry[V]](
			ttlcache.WithTTL[string, Entry[V]](keepUnused),
		),
		subs: make(map[int]func(Event)),
	}
}

// Name returns the endpoint name the store was created with.
func (s *Store[V]) Name() string { return s.name }

// Get returns the cached value for key.
func (s *Store[V]) Get(key string) (V, bool) {
	e, ok := s.Entry(key)
	return e.Value, ok
}

// Entry returns the cached entry for key, including its fetch time.
func (s *Store[V]) Entry(key string) (Entry[V], bool) {
	item := s.items.Get(key)
	if item == nil {
		return Entry[V]{}, false
	}
	return item.Value(), true
}

// Set stores a freshly fetched value and notifies subscribers.
func (s *Store[V]) Set(key string, v V) {
	s.mu.Lock()
	s.items.Set(key, Entry[V]{Value: v, FetchedAt: s.now()}, ttlcache.DefaultTTL)
	s.mu.Unlock()
	s.log.Debug("set", zap.String("key", key))
	s.publish(Event{Kind: Updated, Key: key})
}

// Keys returns the keys of every live entry.
func (s *Store[V]) Keys() []string {
	s.items.DeleteExpired()
	return s.items.Keys()
}

// Len returns the number of live entries.
func (s *Store[V]) Len() int {
	return len(s.Keys())
}

// Invalidate drops key. Subscribers are notified even when nothing was
// cached so that views waiting on the key can refetch.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	s.items.Delete(key)
	s.mu.Unlock()
	s.log.Debug("invalidate", zap.String("key", key))
	s.publish(Event{Kind: Invalidated, Key: key})
}

// InvalidateAll drops every entry.
func (s *Store[V]) InvalidateAll() {
	s.mu.Lock()
	keys := s.items.Keys()
	s.items.DeleteAll()
	s.mu.Unlock()
	s.log.Debug("invalidate all", zap.Int("entries", len(keys)))
	for _, k := range keys {
		s.publish(Event{Kind: Invalidated, Key: k})
	}
}

// Subscribe registers fn for every event on this store and returns a
// function that removes it. fn runs synchronously on the goroutine that
// caused the change and must not call back into Subscribe.
func (s *Store[V]) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store[V]) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// update applies fn to the entry under the store lock. It reports false
// when no entry exists.
func (s *Store[V]) update(key string, fn func(V) V) bool {
	s.mu.Lock()
	item := s.items.Get(key)
	if item == nil {
		s.mu.Unlock()
		return false
	}
	e := item.Value()
	e.Value = fn(e.Value)
	s.items.Set(key, e, ttlcache.DefaultTTL)
	s.mu.Unlock()
	s.publish(Event{Kind: Updated, Key: key})
	return true
}
