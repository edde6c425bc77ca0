package poller

import (
	"context"

	"antmonitor/fleet"
	"antmonitor/reconcile"
)

// Applied summarises one store mutation.
type Applied struct {
	Kind   fleet.Kind
	Change reconcile.Change
	Total  int
}

// Source fetches one resource kind. The fetch runs off the loop; the
// returned apply closure runs on it.
type Source struct {
	Kind  fleet.Kind
	fetch func(ctx context.Context) (apply func() Applied, err error)
}

// Bind polls kind with fetch and reconciles the result into store.
func Bind[E reconcile.Entity[E]](kind fleet.Kind, fetch func(context.Context) ([]E, error), store *reconcile.Store[E]) Source {
	return Source{
		Kind: kind,
		fetch: func(ctx context.Context) (func() Applied, error) {
			items, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			return func() Applied {
				ch := store.Reconcile(items)
				return Applied{Kind: kind, Change: ch, Total: store.Len()}
			}, nil
		},
	}
}

// BindReplace is Bind for reference data that is swapped wholesale.
func BindReplace[E reconcile.Entity[E]](kind fleet.Kind, fetch func(context.Context) ([]E, error), store *reconcile.Store[E]) Source {
	return Source{
		Kind: kind,
		fetch: func(ctx context.Context) (func() Applied, error) {
			items, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			return func() Applied {
				ch := store.Replace(items)
				return Applied{Kind: kind, Change: ch, Total: store.Len()}
			}, nil
		},
	}
}
