// Package view maintains live filtered and sorted projections over the
// reconciled stores.
package view

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"antmonitor/reconcile"
)

// Column is one sortable, searchable field of an entity.
type Column[E any] struct {
	Name    string
	Text    func(E) string
	Compare func(a, b E) int
}

// SortKey orders a view by one column.
type SortKey struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// Criteria is the full filter and sort state of a view.
type Criteria struct {
	Filter       string    `json:"filter"`
	Search       string    `json:"search"`
	SearchColumn string    `json:"search_column"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Sort         []SortKey `json:"sort"`
}

// Stats summarises the filtered view.
type Stats struct {
	Total   int            `json:"total"`
	Buckets map[string]int `json:"buckets"`
}

// Spec describes how to project one entity type.
type Spec[E any] struct {
	Columns       []Column[E]
	Filters       map[string]Filter[E]
	DefaultFilter string
	DefaultSort   []SortKey

	// Timestamp is the field explicit time ranges apply to.
	Timestamp func(E) time.Time

	// Bucket assigns each entity to a statistics bucket. Buckets lists the
	// bucket names always reported, even when empty.
	Bucket  func(E) string
	Buckets []string
}

func (s *Spec[E]) column(name string) (Column[E], bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column[E]{}, false
}

// Option configures a View.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used by rolling-window filters.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// View is a read-only filtered, sorted projection over a store. It
// recomputes whenever the store changes or its criteria change.
type View[E reconcile.Entity[E]] struct {
	store *reconcile.Store[E]
	spec  Spec[E]
	now   func() time.Time
	subID int

	mu       sync.RWMutex
	criteria Criteria
	items    []E
	stats    Stats

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int
}

// New creates a view over store and computes it once.
func New[E reconcile.Entity[E]](store *reconcile.Store[E], spec Spec[E], opts ...Option) *View[E] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	v := &View[E]{
		store:    store,
		spec:     spec,
		now:      o.now,
		criteria: Criteria{Filter: spec.DefaultFilter, Sort: slices.Clone(spec.DefaultSort)},
		subs:     make(map[int]func()),
	}
	v.subID = store.Subscribe(func(reconcile.Change) { v.Refresh() })
	v.Refresh()
	return v
}

// Close detaches the view from its store.
func (v *View[E]) Close() {
	v.store.Unsubscribe(v.subID)
}

// Items returns the current projection.
func (v *View[E]) Items() []E {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.items)
}

// Stats returns counts derived from the current projection.
func (v *View[E]) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	b := make(map[string]int, len(v.stats.Buckets))
	for k, n := range v.stats.Buckets {
		b[k] = n
	}
	return Stats{Total: v.stats.Total, Buckets: b}
}

func (v *View[E]) Criteria() Criteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c := v.criteria
	c.Sort = slices.Clone(c.Sort)
	return c
}

// FilterNames lists the named filters this view accepts.
func (v *View[E]) FilterNames() []string {
	names := make([]string, 0, len(v.spec.Filters))
	for n := range v.spec.Filters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// SetCriteria validates and applies c in one step.
func (v *View[E]) SetCriteria(c Criteria) error {
	if err := v.validate(c); err != nil {
		return err
	}
	v.mu.Lock()
	c.Sort = slices.Clone(c.Sort)
	v.criteria = c
	v.mu.Unlock()
	v.Refresh()
	return nil
}

func (v *View[E]) SetFilter(name string) error {
	return v.update(func(c *Criteria) { c.Filter = name })
}

// SetSearch sets the search term and the column it applies to; an empty
// column searches every column.
func (v *View[E]) SetSearch(term, column string) error {
	return v.update(func(c *Criteria) {
		c.Search = term
		c.SearchColumn = column
	})
}

// SetTimeRange bounds the view on its entity timestamp. Zero values clear a
// bound; clearing both restores rolling-window behaviour.
func (v *View[E]) SetTimeRange(start, end time.Time) error {
	return v.update(func(c *Criteria) {
		c.Start = start
		c.End = end
	})
}

func (v *View[E]) SetSort(keys ...SortKey) error {
	return v.update(func(c *Criteria) { c.Sort = slices.Clone(keys) })
}

func (v *View[E]) update(fn func(*Criteria)) error {
	v.mu.Lock()
	c := v.criteria
	c.Sort = slices.Clone(c.Sort)
	fn(&c)
	if err := v.validate(c); err != nil {
		v.mu.Unlock()
		return err
	}
	v.criteria = c
	v.mu.Unlock()
	v.Refresh()
	return nil
}

func (v *View[E]) validate(c Criteria) error {
	if c.Filter != "" {
		if _, ok := v.spec.Filters[c.Filter]; !ok {
			return fmt.Errorf("unknown filter %q", c.Filter)
		}
	}
	if c.SearchColumn != "" {
		if _, ok := v.spec.column(c.SearchColumn); !ok {
			return fmt.Errorf("unknown search column %q", c.SearchColumn)
		}
	}
	for _, k := range c.Sort {
		if _, ok := v.spec.column(k.Column); !ok {
			return fmt.Errorf("unknown sort column %q", k.Column)
		}
	}
	return nil
}

// Refresh recomputes the projection from the store and notifies
// subscribers. Called on store changes, criteria changes, and periodically
// so rolling windows advance.
func (v *View[E]) Refresh() {
	v.mu.Lock()
	src := v.store.Items()
	c := v.criteria
	w := Window{Now: v.now(), Start: c.Start, End: c.End}.normalize()

	var filter Filter[E]
	if c.Filter != "" {
		filter = v.spec.Filters[c.Filter]
	}
	var searchCols []Column[E]
	needle := strings.ToLower(c.Search)
	if needle != "" {
		if c.SearchColumn != "" {
			col, _ := v.spec.column(c.SearchColumn)
			searchCols = []Column[E]{col}
		} else {
			searchCols = v.spec.Columns
		}
	}

	out := make([]E, 0, len(src))
	for _, e := range src {
		if filter != nil && !filter.Match(e, w) {
			continue
		}
		if w.Ranged() && v.spec.Timestamp != nil && !w.contains(v.spec.Timestamp(e)) {
			continue
		}
		if needle != "" && !matchAny(e, searchCols, needle) {
			continue
		}
		out = append(out, e)
	}

	if len(c.Sort) > 0 {
		keys := make([]Column[E], len(c.Sort))
		for i, k := range c.Sort {
			keys[i], _ = v.spec.column(k.Column)
		}
		slices.SortStableFunc(out, func(a, b E) int {
			for i, col := range keys {
				n := col.Compare(a, b)
				if c.Sort[i].Descending {
					n = -n
				}
				if n != 0 {
					return n
				}
			}
			return 0
		})
	}

	stats := Stats{Total: len(out), Buckets: make(map[string]int, len(v.spec.Buckets))}
	for _, b := range v.spec.Buckets {
		stats.Buckets[b] = 0
	}
	if v.spec.Bucket != nil {
		for _, e := range out {
			stats.Buckets[v.spec.Bucket(e)]++
		}
	} else if len(out) > 0 {
		stats.Buckets["all"] = len(out)
	}

	v.items = out
	v.stats = stats
	v.mu.Unlock()

	v.notify()
}

func matchAny[E any](e E, cols []Column[E], needle string) bool {
	for _, col := range cols {
		if col.Text != nil && matchText(col.Text(e), needle) {
			return true
		}
	}
	return false
}

// Subscribe registers fn to run after every recompute.
func (v *View[E]) Subscribe(fn func()) int {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	v.nextID++
	v.subs[v.nextID] = fn
	return v.nextID
}

func (v *View[E]) Unsubscribe(id int) {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	delete(v.subs, id)
}

func (v *View[E]) notify() {
	v.subMu.Lock()
	fns := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
