package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"antmonitor/fleet"
	"antmonitor/messaging"
	"antmonitor/store"
)

// ErrInvalidRequest marks a command rejected before reaching the fleet
// server.
var ErrInvalidRequest = errors.New("invalid request")

// command runs one operator action against the fleet server, then records
// it in the audit log, metrics, event bus and broker regardless of outcome.
func (e *Engine) command(ctx context.Context, name, entityType, entityID, detail, actor string, fn func(context.Context) error) error {
	err := fn(ctx)
	e.metrics.Command(name, err)

	ev := CommandEvent{Command: name, EntityID: entityID, Detail: detail, Actor: actor}
	if err != nil {
		ev.Error = err.Error()
		e.logFn("engine: %s %s: %v", name, entityID, err)
	} else {
		e.logFn("engine: %s %s by %s", name, entityID, actor)
	}
	if e.db != nil {
		result := detail
		if err != nil {
			result = "error: " + err.Error()
		}
		if aerr := e.db.AppendAudit(entityType, entityID, name, "", result, actor); aerr != nil {
			e.logFn("engine: audit %s: %v", name, aerr)
		}
	}
	e.Events.Emit(Event{Type: EventCommandIssued, Payload: ev})
	e.notify(func(n Notifier) error {
		return n.Command(messaging.CommandPayload{
			Command: name, EntityID: entityID, Detail: detail, Actor: actor, Error: ev.Error,
		})
	})
	return err
}

// refreshAfter kicks a manual refresh of kind in the background so a
// command's effect shows up before the next automatic cycle.
func (e *Engine) refreshAfter(kind fleet.Kind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.antConfig().Timeout+time.Second)
		defer cancel()
		if err := e.sched.Refresh(ctx, kind); err != nil {
			e.debugf("engine: refresh %s after command: %v", kind, err)
		}
	}()
}

func (e *Engine) InsertVehicle(ctx context.Context, vehicle, node, actor string) error {
	if vehicle == "" || node == "" {
		return fmt.Errorf("insert vehicle: %w: vehicle and node are required", ErrInvalidRequest)
	}
	err := e.command(ctx, "insert_vehicle", "vehicle", vehicle, "at "+node, actor, func(ctx context.Context) error {
		return e.fleet.InsertVehicle(ctx, vehicle, node)
	})
	if err == nil {
		e.refreshAfter(fleet.KindVehicles)
	}
	return err
}

func (e *Engine) ExtractVehicle(ctx context.Context, vehicle, actor string) error {
	if vehicle == "" {
		return fmt.Errorf("extract vehicle: %w: vehicle is required", ErrInvalidRequest)
	}
	err := e.command(ctx, "extract_vehicle", "vehicle", vehicle, "", actor, func(ctx context.Context) error {
		return e.fleet.ExtractVehicle(ctx, vehicle)
	})
	if err == nil {
		e.refreshAfter(fleet.KindVehicles)
	}
	return err
}

// CreateMission submits req and returns the server-assigned mission ID.
func (e *Engine) CreateMission(ctx context.Context, req fleet.MissionRequest, actor string) (string, error) {
	if req.FromNode == "" && req.ToNode == "" {
		return "", fmt.Errorf("create mission: %w: a from or to node is required", ErrInvalidRequest)
	}
	var id string
	detail := fmt.Sprintf("%s %s -> %s", req.Type, req.FromNode, req.ToNode)
	if req.Vehicle != "" {
		detail += " on " + req.Vehicle
	}
	err := e.command(ctx, "create_mission", "mission", "", detail, actor, func(ctx context.Context) error {
		var err error
		id, err = e.fleet.CreateMission(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	if e.db != nil {
		// The audit row above was written before the ID was known.
		e.db.AppendAudit("mission", id, "accepted", "", detail, actor)
	}
	e.refreshAfter(fleet.KindMissions)
	return id, nil
}

func (e *Engine) CancelMission(ctx context.Context, missionID, actor string) error {
	if missionID == "" {
		return fmt.Errorf("cancel mission: %w: mission ID is required", ErrInvalidRequest)
	}
	err := e.command(ctx, "cancel_mission", "mission", missionID, "", actor, func(ctx context.Context) error {
		return e.fleet.CancelMission(ctx, missionID)
	})
	if err == nil {
		e.refreshAfter(fleet.KindMissions)
	}
	return err
}

// CreateFromTemplate submits the saved mission template name.
func (e *Engine) CreateFromTemplate(ctx context.Context, name, actor string) (string, error) {
	if e.db == nil {
		return "", fmt.Errorf("create from template: no database")
	}
	t, err := e.db.GetMissionTemplate(name)
	if err != nil {
		return "", err
	}
	return e.CreateMission(ctx, fleet.MissionRequest{
		Type:     fleet.MissionType(t.MissionType),
		FromNode: t.FromNode,
		ToNode:   t.ToNode,
		Vehicle:  t.Vehicle,
		Priority: t.Priority,
	}, actor)
}

// DispatchRoute creates one transport mission for every consecutive pair
// of nodes on the saved route. It stops at the first rejected leg and
// returns the IDs of the legs accepted so far.
func (e *Engine) DispatchRoute(ctx context.Context, name, vehicle string, priority int, actor string) ([]string, error) {
	r, ok := e.Route(name)
	if !ok {
		return nil, fmt.Errorf("route %q: %w", name, store.ErrNotFound)
	}
	if len(r.Nodes) < 2 {
		return nil, fmt.Errorf("route %q: %w: needs at least two nodes", name, ErrInvalidRequest)
	}
	var ids []string
	for i := 1; i < len(r.Nodes); i++ {
		id, err := e.CreateMission(ctx, fleet.MissionRequest{
			Type:     fleet.MissionTransport,
			FromNode: r.Nodes[i-1],
			ToNode:   r.Nodes[i],
			Vehicle:  vehicle,
			Priority: priority,
		}, actor)
		if err != nil {
			return ids, fmt.Errorf("route %q leg %d (%s -> %s): %w", name, i, r.Nodes[i-1], r.Nodes[i], err)
		}
		ids = append(ids, id)
	}
	e.logFn("engine: dispatched route %s as %s", name, strings.Join(ids, ", "))
	return ids, nil
}

// --- Routes ---

// loadRoutes reads the saved routes once at startup.
func (e *Engine) loadRoutes() {
	if e.db == nil {
		return
	}
	routes, err := e.db.ListRoutes()
	if err != nil {
		e.logFn("engine: load routes: %v", err)
		return
	}
	e.routesMu.Lock()
	e.routes = routes
	e.routesMu.Unlock()
	if len(routes) > 0 {
		e.logFn("engine: loaded %d routes", len(routes))
	}
}

func (e *Engine) Routes() []store.Route {
	e.routesMu.RLock()
	defer e.routesMu.RUnlock()
	return values(e.routes)
}

func (e *Engine) Route(name string) (store.Route, bool) {
	e.routesMu.RLock()
	defer e.routesMu.RUnlock()
	for _, r := range e.routes {
		if r.Name == name {
			return *r, true
		}
	}
	return store.Route{}, false
}

// SaveRoute persists r, replacing any route of the same name.
func (e *Engine) SaveRoute(r *store.Route, actor string) error {
	if e.db == nil {
		return fmt.Errorf("save route: no database")
	}
	if err := e.db.SaveRoute(r); err != nil {
		return err
	}
	e.db.AppendAudit("route", r.Name, "save", "", strings.Join(r.Nodes, " -> "), actor)

	e.routesMu.Lock()
	saved := *r
	saved.Nodes = slices.Clone(r.Nodes)
	replaced := false
	for i, old := range e.routes {
		if old.Name == r.Name {
			e.routes[i] = &saved
			replaced = true
			break
		}
	}
	if !replaced {
		e.routes = append(e.routes, &saved)
	}
	e.routesMu.Unlock()

	e.Events.Emit(Event{Type: EventRoutesChanged, Payload: RoutesChangedEvent{Name: r.Name}})
	return nil
}

func (e *Engine) DeleteRoute(name, actor string) error {
	if e.db == nil {
		return fmt.Errorf("delete route: no database")
	}
	if err := e.db.DeleteRoute(name); err != nil {
		return err
	}
	e.db.AppendAudit("route", name, "delete", "", "", actor)

	e.routesMu.Lock()
	e.routes = slices.DeleteFunc(e.routes, func(r *store.Route) bool { return r.Name == name })
	e.routesMu.Unlock()

	e.Events.Emit(Event{Type: EventRoutesChanged, Payload: RoutesChangedEvent{Name: name, Deleted: true}})
	return nil
}
