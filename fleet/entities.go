package fleet

import (
	"slices"
	"time"
)

// Vehicle is one fleet vehicle as last reported by the server.
type Vehicle struct {
	Name         string       `json:"name"`
	State        VehicleState `json:"state"`
	Location     string       `json:"location"`
	MissionID    string       `json:"mission_id"`
	BatteryLevel float64      `json:"battery_level"`
	Alarms       []string     `json:"alarms"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Course       float64      `json:"course"`
	Path         []string     `json:"path"`

	Group           string    `json:"group"`
	Type            string    `json:"type"`
	IP              string    `json:"ip"`
	Connected       bool      `json:"connected"`
	Locked          bool      `json:"locked"`
	LockedBy        string    `json:"locked_by"`
	Errors          []string  `json:"errors"`
	Warnings        []string  `json:"warnings"`
	ActionState     int       `json:"action_state"`
	ActionName      string    `json:"action_name"`
	Speed           float64   `json:"speed"`
	Payload         string    `json:"payload"`
	Charging        bool      `json:"charging"`
	Dispatchable    bool      `json:"dispatchable"`
	MapName         string    `json:"map_name"`
	Level           int       `json:"level"`
	Uptime          int64     `json:"uptime"`
	Odometer        float64   `json:"odometer"`
	SharedMemoryIn  []int     `json:"shared_memory_in"`
	SharedMemoryOut []int     `json:"shared_memory_out"`
	LastSeen        time.Time `json:"last_seen"`
}

func (v *Vehicle) Key() string { return v.Name }

// UpdateFrom overwrites every mutable field with src's values.
func (v *Vehicle) UpdateFrom(src *Vehicle) bool {
	if v.equal(src) {
		return false
	}
	name := v.Name
	*v = *src
	v.Name = name
	v.Alarms = slices.Clone(src.Alarms)
	v.Path = slices.Clone(src.Path)
	v.Errors = slices.Clone(src.Errors)
	v.Warnings = slices.Clone(src.Warnings)
	v.SharedMemoryIn = slices.Clone(src.SharedMemoryIn)
	v.SharedMemoryOut = slices.Clone(src.SharedMemoryOut)
	return true
}

func (v *Vehicle) equal(o *Vehicle) bool {
	return v.State == o.State &&
		v.Location == o.Location &&
		v.MissionID == o.MissionID &&
		v.BatteryLevel == o.BatteryLevel &&
		v.X == o.X && v.Y == o.Y && v.Course == o.Course &&
		v.Group == o.Group && v.Type == o.Type && v.IP == o.IP &&
		v.Connected == o.Connected && v.Locked == o.Locked && v.LockedBy == o.LockedBy &&
		v.ActionState == o.ActionState && v.ActionName == o.ActionName &&
		v.Speed == o.Speed && v.Payload == o.Payload &&
		v.Charging == o.Charging && v.Dispatchable == o.Dispatchable &&
		v.MapName == o.MapName && v.Level == o.Level &&
		v.Uptime == o.Uptime && v.Odometer == o.Odometer &&
		v.LastSeen.Equal(o.LastSeen) &&
		slices.Equal(v.Alarms, o.Alarms) &&
		slices.Equal(v.Path, o.Path) &&
		slices.Equal(v.Errors, o.Errors) &&
		slices.Equal(v.Warnings, o.Warnings) &&
		slices.Equal(v.SharedMemoryIn, o.SharedMemoryIn) &&
		slices.Equal(v.SharedMemoryOut, o.SharedMemoryOut)
}

// Mission is one transport mission known to the server.
type Mission struct {
	ID              string          `json:"id"`
	Type            MissionType     `json:"type"`
	FromNode        string          `json:"from_node"`
	ToNode          string          `json:"to_node"`
	Vehicle         string          `json:"vehicle"`
	NavigationState NavigationState `json:"navigation_state"`
	TransportState  TransportState  `json:"transport_state"`
	Priority        int             `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
	ArrivingTime    time.Time       `json:"arriving_time"`
}

func (m *Mission) Key() string { return m.ID }

// UpdateFrom copies src onto m. Timestamps are only taken from src when
// set, so a partial payload cannot wipe them. A missing arriving time is
// backfilled from the creation time.
func (m *Mission) UpdateFrom(src *Mission) bool {
	before := *m

	m.Type = src.Type
	m.FromNode = src.FromNode
	m.ToNode = src.ToNode
	m.Vehicle = src.Vehicle
	m.NavigationState = src.NavigationState
	m.TransportState = src.TransportState
	m.Priority = src.Priority
	if !src.CreatedAt.IsZero() {
		m.CreatedAt = src.CreatedAt
	}
	if !src.ArrivingTime.IsZero() {
		m.ArrivingTime = src.ArrivingTime
	}
	if m.ArrivingTime.IsZero() && !m.CreatedAt.IsZero() {
		m.ArrivingTime = m.CreatedAt
	}

	return before.Type != m.Type ||
		before.FromNode != m.FromNode ||
		before.ToNode != m.ToNode ||
		before.Vehicle != m.Vehicle ||
		before.NavigationState != m.NavigationState ||
		before.TransportState != m.TransportState ||
		before.Priority != m.Priority ||
		!before.CreatedAt.Equal(m.CreatedAt) ||
		!before.ArrivingTime.Equal(m.ArrivingTime)
}

// Timestamp is the time used for mission time filters.
func (m *Mission) Timestamp() time.Time {
	if !m.ArrivingTime.IsZero() {
		return m.ArrivingTime
	}
	return m.CreatedAt
}

// Alarm is one alarm raised by the server.
type Alarm struct {
	UUID         string     `json:"uuid"`
	SourceID     string     `json:"source_id"`
	SourceType   string     `json:"source_type"`
	EventName    string     `json:"event_name"`
	Message      string     `json:"message"`
	EventCount   int        `json:"event_count"`
	FirstEventAt time.Time  `json:"first_event_at"`
	LastEventAt  time.Time  `json:"last_event_at"`
	GeneratedAt  time.Time  `json:"generated_at"`
	State        AlarmState `json:"state"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClearedAt    *time.Time `json:"cleared_at,omitempty"`
}

func (a *Alarm) Key() string { return a.UUID }

// UpdateFrom overwrites every field unconditionally.
func (a *Alarm) UpdateFrom(src *Alarm) bool {
	if a.equal(src) {
		return false
	}
	uuid := a.UUID
	*a = *src
	a.UUID = uuid
	a.ClosedAt = cloneTime(src.ClosedAt)
	a.ClearedAt = cloneTime(src.ClearedAt)
	return true
}

func (a *Alarm) equal(o *Alarm) bool {
	return a.SourceID == o.SourceID &&
		a.SourceType == o.SourceType &&
		a.EventName == o.EventName &&
		a.Message == o.Message &&
		a.EventCount == o.EventCount &&
		a.FirstEventAt.Equal(o.FirstEventAt) &&
		a.LastEventAt.Equal(o.LastEventAt) &&
		a.GeneratedAt.Equal(o.GeneratedAt) &&
		a.State == o.State &&
		timePtrEqual(a.ClosedAt, o.ClosedAt) &&
		timePtrEqual(a.ClearedAt, o.ClearedAt)
}

// Timestamp is the time used for alarm time filters.
func (a *Alarm) Timestamp() time.Time {
	if a.ClearedAt != nil {
		return *a.ClearedAt
	}
	if a.ClosedAt != nil {
		return *a.ClosedAt
	}
	if !a.LastEventAt.IsZero() {
		return a.LastEventAt
	}
	return a.GeneratedAt
}

// Node is a map location. Read-only reference data.
type Node struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Area  string   `json:"area"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Links []string `json:"links"`
}

func (n *Node) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Name
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
