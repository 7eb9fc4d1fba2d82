package cache

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delta is a reversible change to a cached value. Revert must undo only
// what Apply did, leaving changes made by other deltas in place.
type Delta[V any] interface {
	Apply(V) V
	Revert(V) V
}

// Patch is a handle on one applied delta. It can be undone at most once.
type Patch[V any] struct {
	ID  string
	Key string

	store   *Store[V]
	delta   Delta[V]
	applied bool
	once    sync.Once
}

// Patch applies d to the entry at key. When no entry exists the returned
// patch is inert: Applied reports false and Undo does nothing.
func (s *Store[V]) Patch(key string, d Delta[V]) *Patch[V] {
	p := &Patch[V]{ID: uuid.NewString(), Key: key, store: s, delta: d}
	p.applied = s.update(key, d.Apply)
	s.log.Debug("patch",
		zap.String("key", key),
		zap.String("patch", p.ID),
		zap.Bool("applied", p.applied),
	)
	return p
}

// Applied reports whether the delta reached a cached entry.
func (p *Patch[V]) Applied() bool { return p.applied }

// Undo reverts the delta against the entry as it is now. It reports whether
// anything was reverted; later calls are no-ops.
func (p *Patch[V]) Undo() bool {
	reverted := false
	p.once.Do(func() {
		if !p.applied {
			return
		}
		reverted = p.store.update(p.Key, p.delta.Revert)
		p.store.log.Debug("undo",
			zap.String("key", p.Key),
			zap.String("patch", p.ID),
			zap.Bool("reverted", reverted),
		)
	})
	return reverted
}
