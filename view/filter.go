package view

import (
	"slices"
	"strings"
	"time"
)

// DefaultWindow is how long an entity in an expiring state stays visible
// under a rolling-window filter.
const DefaultWindow = 3 * time.Minute

// Window carries the time context a filter is evaluated in.
type Window struct {
	Now   time.Time
	Start time.Time
	End   time.Time
}

// Ranged reports whether an explicit time range is set. An explicit range
// replaces rolling-window expiry.
func (w Window) Ranged() bool {
	return !w.Start.IsZero() || !w.End.IsZero()
}

// normalize swaps inverted bounds.
func (w Window) normalize() Window {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		w.Start, w.End = w.End, w.Start
	}
	return w
}

// contains reports whether ts falls inside the explicit range. Open-ended
// bounds are unbounded on that side.
func (w Window) contains(ts time.Time) bool {
	if !w.Start.IsZero() && ts.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && ts.After(w.End) {
		return false
	}
	return true
}

// Filter decides whether an entity belongs in a view.
type Filter[E any] interface {
	Match(e E, w Window) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc[E any] func(e E, w Window) bool

func (f FilterFunc[E]) Match(e E, w Window) bool { return f(e, w) }

// StateFilter admits entities whose state code is in Allowed (nil admits
// all). Entities in one of the Expire states drop out once their timestamp
// is older than Window, unless an explicit time range is set.
type StateFilter[E any] struct {
	State     func(E) int
	Allowed   []int
	Expire    []int
	Timestamp func(E) time.Time
	Window    time.Duration
}

func (f StateFilter[E]) Match(e E, w Window) bool {
	s := f.State(e)
	if f.Allowed != nil && !slices.Contains(f.Allowed, s) {
		return false
	}
	if w.Ranged() || f.Window <= 0 || !slices.Contains(f.Expire, s) {
		return true
	}
	ts := f.Timestamp(e)
	if ts.IsZero() {
		return true
	}
	return w.Now.Sub(ts) <= f.Window
}

// matchText is the case-insensitive substring search used by views.
func matchText(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
