// Package reconcile keeps locally held entity collections in step with
// snapshots fetched from the fleet server while preserving the identity of
// entries that survive a refresh.
package reconcile

import (
	"sync"
)

// Entity is implemented by pointer types that carry a stable identity and
// can absorb a newer copy of themselves in place.
type Entity[E any] interface {
	Key() string
	// UpdateFrom copies src's mutable fields onto the receiver and reports
	// whether anything changed.
	UpdateFrom(src E) bool
}

// Change lists the keys touched by one reconciliation.
type Change struct {
	Added   []string
	Removed []string
	Updated []string
}

// Empty reports whether the change touched nothing.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Updated) == 0
}

type subscriber struct {
	id int
	fn func(Change)
}

// Store is the single owner of one ordered entity collection. All mutation
// goes through Reconcile or Replace.
type Store[E Entity[E]] struct {
	mu    sync.RWMutex
	items []E

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

func NewStore[E Entity[E]]() *Store[E] {
	return &Store[E]{}
}

// Reconcile brings the collection in line with fetched:
// entries whose key is missing from fetched are removed, entries present in
// both are updated in place, and new keys are appended in fetch order. When
// fetched holds a key more than once the last occurrence wins.
func (s *Store[E]) Reconcile(fetched []E) Change {
	last := make(map[string]int, len(fetched))
	for i, e := range fetched {
		last[e.Key()] = i
	}

	var ch Change
	s.mu.Lock()
	existing := make(map[string]E, len(s.items))
	kept := s.items[:0]
	for _, e := range s.items {
		k := e.Key()
		if _, ok := last[k]; !ok {
			ch.Removed = append(ch.Removed, k)
			continue
		}
		existing[k] = e
		kept = append(kept, e)
	}
	clear(s.items[len(kept):])
	s.items = kept

	for i, f := range fetched {
		k := f.Key()
		if last[k] != i {
			continue
		}
		if cur, ok := existing[k]; ok {
			if cur.UpdateFrom(f) {
				ch.Updated = append(ch.Updated, k)
			}
			continue
		}
		s.items = append(s.items, f)
		existing[k] = f
		ch.Added = append(ch.Added, k)
	}
	s.mu.Unlock()

	if !ch.Empty() {
		s.notify(ch)
	}
	return ch
}

// Replace swaps the whole collection for items. Used for reference data
// that is not reconciled incrementally.
func (s *Store[E]) Replace(items []E) Change {
	next := make(map[string]struct{}, len(items))
	var ch Change
	for _, e := range items {
		next[e.Key()] = struct{}{}
	}

	s.mu.Lock()
	prev := make(map[string]struct{}, len(s.items))
	for _, e := range s.items {
		k := e.Key()
		prev[k] = struct{}{}
		if _, ok := next[k]; !ok {
			ch.Removed = append(ch.Removed, k)
		}
	}
	for _, e := range items {
		k := e.Key()
		if _, ok := prev[k]; ok {
			ch.Updated = append(ch.Updated, k)
		} else {
			ch.Added = append(ch.Added, k)
		}
	}
	s.items = append([]E(nil), items...)
	s.mu.Unlock()

	if !ch.Empty() {
		s.notify(ch)
	}
	return ch
}

// Items returns the entries in collection order. The slice is a copy; the
// entries are the stored pointers.
func (s *Store[E]) Items() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up an entry by key.
func (s *Store[E]) Get(key string) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.items {
		if e.Key() == key {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Keys returns the keys in collection order.
func (s *Store[E]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.items))
	for i, e := range s.items {
		keys[i] = e.Key()
	}
	return keys
}

func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to be called after every non-empty change.
func (s *Store[E]) Subscribe(fn func(Change)) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	s.subs = append(s.subs, subscriber{id: s.nextID, fn: fn})
	return s.nextID
}

// Unsubscribe removes a subscriber by ID.
func (s *Store[E]) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Store[E]) notify(ch Change) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ch)
	}
}
