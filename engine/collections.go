package engine

import (
	"antmonitor/fleet"
	"antmonitor/view"
)

// The reconciled entities are mutated in place on the loop, so everything
// handed out of the engine is a value copy taken on the loop.

func values[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, p := range items {
		out[i] = *p
	}
	return out
}

// Vehicles returns the vehicle view in display order.
func (e *Engine) Vehicles() []fleet.Vehicle {
	var out []fleet.Vehicle
	e.onLoop(func() { out = values(e.vehicleView.Items()) })
	return out
}

// Missions returns the mission view in display order.
func (e *Engine) Missions() []fleet.Mission {
	var out []fleet.Mission
	e.onLoop(func() { out = values(e.missionView.Items()) })
	return out
}

// Alarms returns the alarm view in display order.
func (e *Engine) Alarms() []fleet.Alarm {
	var out []fleet.Alarm
	e.onLoop(func() { out = values(e.alarmView.Items()) })
	return out
}

// Nodes returns the map nodes in server order.
func (e *Engine) Nodes() []fleet.Node {
	var out []fleet.Node
	e.onLoop(func() { out = values(e.nodes.Items()) })
	return out
}

// Vehicle looks up one vehicle in the full collection, ignoring the view.
func (e *Engine) Vehicle(name string) (fleet.Vehicle, bool) {
	var v fleet.Vehicle
	var ok bool
	e.onLoop(func() {
		var p *fleet.Vehicle
		if p, ok = e.vehicles.Get(name); ok {
			v = *p
		}
	})
	return v, ok
}

// Mission looks up one mission in the full collection, ignoring the view.
func (e *Engine) Mission(id string) (fleet.Mission, bool) {
	var m fleet.Mission
	var ok bool
	e.onLoop(func() {
		var p *fleet.Mission
		if p, ok = e.missions.Get(id); ok {
			m = *p
		}
	})
	return m, ok
}

// Items returns the view of kind as values, for callers that do not care
// about the entity type.
func (e *Engine) Items(kind fleet.Kind) (any, error) {
	switch kind {
	case fleet.KindVehicles:
		return e.Vehicles(), nil
	case fleet.KindMissions:
		return e.Missions(), nil
	case fleet.KindAlarms:
		return e.Alarms(), nil
	case fleet.KindNodes:
		return e.Nodes(), nil
	}
	return nil, unknownKind(kind)
}

func (e *Engine) view(kind fleet.Kind) (viewControl, error) {
	v, ok := e.views[kind]
	if !ok {
		return nil, unknownKind(kind)
	}
	return v, nil
}

// Stats returns counts over the filtered view of kind.
func (e *Engine) Stats(kind fleet.Kind) (view.Stats, error) {
	v, err := e.view(kind)
	if err != nil {
		return view.Stats{}, err
	}
	var st view.Stats
	e.onLoop(func() { st = v.Stats() })
	return st, nil
}

func (e *Engine) Criteria(kind fleet.Kind) (view.Criteria, error) {
	v, err := e.view(kind)
	if err != nil {
		return view.Criteria{}, err
	}
	return v.Criteria(), nil
}

func (e *Engine) FilterNames(kind fleet.Kind) ([]string, error) {
	v, err := e.view(kind)
	if err != nil {
		return nil, err
	}
	return v.FilterNames(), nil
}

// SetCriteria replaces the filter, search, time range and sort of the view
// of kind. The view is recomputed on the loop before SetCriteria returns.
func (e *Engine) SetCriteria(kind fleet.Kind, c view.Criteria) error {
	v, err := e.view(kind)
	if err != nil {
		return err
	}
	e.onLoop(func() { err = v.SetCriteria(c) })
	if err != nil {
		return err
	}
	e.Events.Emit(Event{Type: EventCriteriaChanged, Payload: CriteriaChangedEvent{Kind: kind}})
	return nil
}
