package engine

import (
	"context"
	"fmt"

	"antmonitor/fleet"
	"antmonitor/messaging"
	"antmonitor/poller"
	"antmonitor/reconcile"
)

// Refresh fetches one kind now and reports progress through Status and
// EventRefreshStatus. It may overlap an automatic cycle.
func (e *Engine) Refresh(ctx context.Context, kind fleet.Kind) error {
	if !e.fleet.Connected() {
		err := &fleet.Error{Kind: fleet.ErrNotConnected, Op: "refresh " + string(kind)}
		e.handleStatus(poller.Status{Kind: kind, Phase: poller.PhaseFailure, Message: err.Error()})
		return err
	}
	return e.sched.Refresh(ctx, kind)
}

// RefreshAll manually refreshes missions, vehicles and alarms.
func (e *Engine) RefreshAll(ctx context.Context) error {
	if !e.fleet.Connected() {
		return &fleet.Error{Kind: fleet.ErrNotConnected, Op: "refresh"}
	}
	return e.sched.RefreshAll(ctx)
}

// Status returns the last manual refresh status for kind.
func (e *Engine) Status(kind fleet.Kind) (poller.Status, bool) {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	st, ok := e.status[kind]
	return st, ok
}

// Statuses returns the last manual refresh status of every kind refreshed
// so far.
func (e *Engine) Statuses() []poller.Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	out := make([]poller.Status, 0, len(e.status))
	for _, k := range fleet.Kinds {
		if st, ok := e.status[k]; ok {
			out = append(out, st)
		}
	}
	return out
}

func (e *Engine) handleStatus(st poller.Status) {
	e.statusMu.Lock()
	e.status[st.Kind] = st
	e.statusMu.Unlock()
	e.Events.Emit(Event{Type: EventRefreshStatus, Payload: RefreshStatusEvent{Status: st, Text: st.String()}})
}

// handleApplied runs on the loop after every store mutation.
func (e *Engine) handleApplied(a poller.Applied) {
	if a.Change.Empty() {
		return
	}
	e.debugf("engine: %s +%d -%d ~%d (%d total)", a.Kind,
		len(a.Change.Added), len(a.Change.Removed), len(a.Change.Updated), a.Total)

	e.Events.Emit(Event{Type: EventCollectionChanged, Payload: CollectionChangedEvent{
		Kind:    a.Kind,
		Added:   a.Change.Added,
		Removed: a.Change.Removed,
		Updated: a.Change.Updated,
		Total:   a.Total,
	}})

	if e.snapshots != nil {
		if err := e.snapshots.Submit(string(a.Kind), e.snapshotItems(a.Kind)); err != nil {
			e.logFn("engine: snapshot %s: %v", a.Kind, err)
		}
	}
	e.notify(func(n Notifier) error {
		return n.Change(messaging.ChangePayload{
			Kind:    string(a.Kind),
			Added:   a.Change.Added,
			Removed: a.Change.Removed,
			Updated: a.Change.Updated,
			Total:   a.Total,
		})
	})
}

// snapshotItems returns the raw collection for kind. Must run on the loop.
func (e *Engine) snapshotItems(kind fleet.Kind) any {
	switch kind {
	case fleet.KindVehicles:
		return e.vehicles.Items()
	case fleet.KindMissions:
		return e.missions.Items()
	case fleet.KindAlarms:
		return e.alarms.Items()
	case fleet.KindNodes:
		return e.nodes.Items()
	}
	return nil
}

// refreshViews recomputes every view so rolling windows advance even when
// no data changed. Runs on the loop at the end of each automatic cycle.
func (e *Engine) refreshViews() {
	for _, v := range e.views {
		v.Refresh()
	}
}

func (e *Engine) notify(fn func(Notifier) error) {
	if e.notifier == nil {
		return
	}
	if err := fn(e.notifier); err != nil {
		e.logFn("engine: notify: %v", err)
	}
}

func appliedOf(kind fleet.Kind, ch reconcile.Change, total int) poller.Applied {
	return poller.Applied{Kind: kind, Change: ch, Total: total}
}

func unknownKind(kind fleet.Kind) error {
	return fmt.Errorf("engine: no view for %q", kind)
}
