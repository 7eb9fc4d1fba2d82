package cache_test

import (
	"slices"
	"testing"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/cache"
	"github.com/google/go-cmp/cmp"
)

// appendDelta appends a value and removes it again on revert.
type appendDelta struct{ v int }

func (d appendDelta) Apply(xs []int) []int { return append(slices.Clone(xs), d.v) }

func (d appendDelta) Revert(xs []int) []int {
	i := slices.Index(xs, d.v)
	if i < 0 {
		return xs
	}
	return slices.Delete(slices.Clone(xs), i, i+1)
}

func TestStore_GetSet(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := cache.New[[]int]("books", 0, cache.WithClock(func() time.Time { return fixed }))

	if _, ok := s.Get("k"); ok {
		t.Fatal("Get on empty store should miss")
	}
	s.Set("k", []int{1, 2})
	e, ok := s.Entry("k")
	if !ok {
		t.Fatal("Entry should hit after Set")
	}
	if diff := cmp.Diff([]int{1, 2}, e.Value); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
	if !e.FetchedAt.Equal(fixed) {
		t.Errorf("FetchedAt = %v, want %v", e.FetchedAt, fixed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_ExpiresUnused(t *testing.T) {
	s := cache.New[int]("books", 20*time.Millisecond)
	s.Set("k", 1)
	time.Sleep(60 * time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Error("entry should expire after the keep-unused duration")
	}
}

func TestStore_SubscribeEvents(t *testing.T) {
	s := cache.New[int]("books", 0)
	var got []cache.Event
	unsub := s.Subscribe(func(ev cache.Event) { got = append(got, ev) })

	s.Set("a", 1)
	s.Set("b", 2)
	s.Invalidate("a")
	unsub()
	s.Set("c", 3)

	want := []cache.Event{
		{Kind: cache.Updated, Key: "a"},
		{Kind: cache.Updated, Key: "b"},
		{Kind: cache.Invalidated, Key: "a"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	unsub() // second call is a no-op
}

func TestStore_InvalidateAll(t *testing.T) {
	s := cache.New[int]("books", 0)
	s.Set("a", 1)
	s.Set("b", 2)

	var keys []string
	s.Subscribe(func(ev cache.Event) {
		if ev.Kind == cache.Invalidated {
			keys = append(keys, ev.Key)
		}
	})
	s.InvalidateAll()

	slices.Sort(keys)
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("invalidated keys mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after InvalidateAll", s.Len())
	}
}

func TestPatch_ApplyAndUndoOnce(t *testing.T) {
	s := cache.New[[]int]("books", 0)
	s.Set("k", []int{1})

	p := s.Patch("k", appendDelta{2})
	if !p.Applied() || p.ID == "" {
		t.Fatalf("patch not applied: %+v", p)
	}
	if v, _ := s.Get("k"); !slices.Equal(v, []int{1, 2}) {
		t.Errorf("after patch = %v", v)
	}
	if !p.Undo() {
		t.Error("first Undo should revert")
	}
	if p.Undo() {
		t.Error("second Undo should be a no-op")
	}
	if v, _ := s.Get("k"); !slices.Equal(v, []int{1}) {
		t.Errorf("after undo = %v", v)
	}
}

func TestPatch_MissingEntryIsInert(t *testing.T) {
	s := cache.New[[]int]("books", 0)
	p := s.Patch("nope", appendDelta{1})
	if p.Applied() {
		t.Error("patch on missing entry should not apply")
	}
	if p.Undo() {
		t.Error("Undo of inert patch should report false")
	}
	if _, ok := s.Get("nope"); ok {
		t.Error("patch must not create an entry")
	}
}

func TestPatch_UndoLeavesOtherPatches(t *testing.T) {
	s := cache.New[[]int]("books", 0)
	s.Set("k", nil)
	p1 := s.Patch("k", appendDelta{1})
	s.Patch("k", appendDelta{2})
	p1.Undo()
	if v, _ := s.Get("k"); !slices.Equal(v, []int{2}) {
		t.Errorf("after undoing first patch = %v, want [2]", v)
	}
}

func TestPatch_NotifiesSubscribers(t *testing.T) {
	s := cache.New[[]int]("books", 0)
	s.Set("k", nil)
	n := 0
	s.Subscribe(func(cache.Event) { n++ })
	p := s.Patch("k", appendDelta{1})
	p.Undo()
	if n != 2 {
		t.Errorf("got %d events, want 2 (patch + undo)", n)
	}
}
