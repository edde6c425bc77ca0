package antfleet

import (
	"slices"
	"strings"
	"time"

	"antmonitor/ant"
	"antmonitor/fleet"
)

// timeLayouts are the timestamp formats the server has been seen to send.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
}

// parseTime returns the zero time for empty, unparseable and sentinel
// values (the server sends 0001-01-01 or the Unix epoch for "unset").
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() <= 1970 {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func mapVehicle(r *ant.VehicleRecord) *fleet.Vehicle {
	v := &fleet.Vehicle{
		Name:         r.Name,
		State:        fleet.VehicleState(deref(r.OperatingState)),
		MissionID:    r.MissionID,
		BatteryLevel: deref(r.BatteryLevel),
		Alarms:       slices.Clone(r.Alarms),
		Path:         slices.Clone(r.Path),
		Group:        r.Group,
		Type:         r.Type,
		IP:           r.IP,
		Connected:    deref(r.Connected),
		Locked:       deref(r.Locked),
		LockedBy:     r.LockedBy,
		Errors:       slices.Clone(r.Errors),
		Warnings:     slices.Clone(r.Warnings),
		Speed:        deref(r.Speed),
		Payload:      r.Payload,
		Charging:     deref(r.Charging),
		Dispatchable: deref(r.Dispatchable),
		Uptime:       deref(r.Uptime),
		Odometer:     deref(r.Odometer),
		LastSeen:     parseTime(r.LastUpdate),
	}
	if loc := r.Location; loc != nil {
		v.Location = loc.CurrentNode
		v.MapName = loc.MapName
		v.Level = deref(loc.Level)
		if len(loc.Coord) > 0 {
			v.X = loc.Coord[0]
		}
		if len(loc.Coord) > 1 {
			v.Y = loc.Coord[1]
		}
		if len(loc.Coord) > 2 {
			v.Course = loc.Coord[2]
		}
	}
	if r.Action != nil {
		v.ActionState = r.Action.State
		v.ActionName = r.Action.Name
	}
	if r.SharedMemory != nil {
		v.SharedMemoryIn = slices.Clone(r.SharedMemory.In)
		v.SharedMemoryOut = slices.Clone(r.SharedMemory.Out)
	}
	return v
}

// mapMission does not backfill ArrivingTime; that only happens when an
// existing mission is updated.
func mapMission(r *ant.MissionRecord) *fleet.Mission {
	return &fleet.Mission{
		ID:              r.MissionID,
		Type:            fleet.MissionType(deref(r.MissionType)),
		FromNode:        r.FromNode,
		ToNode:          r.ToNode,
		Vehicle:         r.AssignedTo,
		NavigationState: fleet.NavigationState(deref(r.NavigationState)),
		TransportState:  fleet.TransportState(deref(r.TransportState)),
		Priority:        deref(r.Priority),
		CreatedAt:       parseTime(r.CreatedAt),
		ArrivingTime:    parseTime(r.ArrivingTime),
	}
}

func mapAlarm(r *ant.AlarmRecord) *fleet.Alarm {
	return &fleet.Alarm{
		UUID:         r.UUID,
		SourceID:     r.SourceID,
		SourceType:   r.SourceType,
		EventName:    r.EventName,
		Message:      r.AlarmMessage,
		EventCount:   deref(r.EventCount),
		FirstEventAt: parseTime(r.FirstEventAt),
		LastEventAt:  parseTime(r.LastEventAt),
		GeneratedAt:  parseTime(r.Timestamp),
		State:        fleet.AlarmState(deref(r.State)),
		ClosedAt:     parseTimePtr(r.ClosedAt),
		ClearedAt:    parseTimePtr(r.ClearedAt),
	}
}

func mapNode(r *ant.NodeRecord) *fleet.Node {
	n := &fleet.Node{
		ID:    r.ID,
		Name:  r.Name,
		Type:  r.Type,
		Area:  r.Group,
		Links: slices.Clone(r.Links),
	}
	if len(r.Coord) > 1 {
		n.X, n.Y = r.Coord[0], r.Coord[1]
	}
	return n
}

func mapMissionRequest(req fleet.MissionRequest) ant.MissionRequest {
	out := ant.MissionRequest{
		MissionType: int(req.Type),
		FromNode:    req.FromNode,
		ToNode:      req.ToNode,
		Vehicle:     req.Vehicle,
		Priority:    req.Priority,
	}
	if !req.Deadline.IsZero() {
		out.Deadline = req.Deadline.UTC().Format(time.RFC3339)
	}
	return out
}
