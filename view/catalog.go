package view

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"antmonitor/fleet"
)

func textCol[E any](name string, get func(E) string) Column[E] {
	return Column[E]{
		Name:    name,
		Text:    get,
		Compare: func(a, b E) int { return strings.Compare(get(a), get(b)) },
	}
}

func intCol[E any](name string, get func(E) int, label func(E) string) Column[E] {
	if label == nil {
		label = func(e E) string { return strconv.Itoa(get(e)) }
	}
	return Column[E]{
		Name:    name,
		Text:    label,
		Compare: func(a, b E) int { return cmp.Compare(get(a), get(b)) },
	}
}

func floatCol[E any](name string, get func(E) float64) Column[E] {
	return Column[E]{
		Name:    name,
		Text:    func(e E) string { return strconv.FormatFloat(get(e), 'f', -1, 64) },
		Compare: func(a, b E) int { return cmp.Compare(get(a), get(b)) },
	}
}

func timeCol[E any](name string, get func(E) time.Time) Column[E] {
	return Column[E]{
		Name: name,
		Text: func(e E) string {
			t := get(e)
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04:05")
		},
		Compare: func(a, b E) int { return get(a).Compare(get(b)) },
	}
}

func stateNames[S ~int](n int, name func(S) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = name(S(i))
	}
	return out
}

// MissionSpec projects missions. The default filter shows live missions
// and missions that terminated within the last three minutes.
func MissionSpec() Spec[*fleet.Mission] {
	nav := func(m *fleet.Mission) int { return int(m.NavigationState) }
	ts := (*fleet.Mission).Timestamp
	states := func(s ...fleet.NavigationState) []int {
		out := make([]int, len(s))
		for i, v := range s {
			out[i] = int(v)
		}
		return out
	}

	return Spec[*fleet.Mission]{
		Columns: []Column[*fleet.Mission]{
			textCol("id", func(m *fleet.Mission) string { return m.ID }),
			intCol("type", func(m *fleet.Mission) int { return int(m.Type) },
				func(m *fleet.Mission) string { return m.Type.String() }),
			textCol("from", func(m *fleet.Mission) string { return m.FromNode }),
			textCol("to", func(m *fleet.Mission) string { return m.ToNode }),
			textCol("vehicle", func(m *fleet.Mission) string { return m.Vehicle }),
			intCol("navigation_state", nav,
				func(m *fleet.Mission) string { return m.NavigationState.String() }),
			intCol("transport_state", func(m *fleet.Mission) int { return int(m.TransportState) },
				func(m *fleet.Mission) string { return m.TransportState.String() }),
			intCol("priority", func(m *fleet.Mission) int { return m.Priority }, nil),
			timeCol("created_at", func(m *fleet.Mission) time.Time { return m.CreatedAt }),
			timeCol("arriving_time", func(m *fleet.Mission) time.Time { return m.ArrivingTime }),
		},
		Filters: map[string]Filter[*fleet.Mission]{
			"default": StateFilter[*fleet.Mission]{
				State:     nav,
				Allowed:   states(fleet.NavReceived, fleet.NavAccepted, fleet.NavStarted, fleet.NavTerminated),
				Expire:    states(fleet.NavTerminated),
				Timestamp: ts,
				Window:    DefaultWindow,
			},
			"all":       StateFilter[*fleet.Mission]{State: nav},
			"active":    StateFilter[*fleet.Mission]{State: nav, Allowed: states(fleet.NavReceived, fleet.NavAccepted, fleet.NavStarted)},
			"completed": StateFilter[*fleet.Mission]{State: nav, Allowed: states(fleet.NavTerminated)},
			"failed":    StateFilter[*fleet.Mission]{State: nav, Allowed: states(fleet.NavRejected, fleet.NavCancelled)},
		},
		DefaultFilter: "default",
		DefaultSort:   []SortKey{{Column: "created_at", Descending: true}},
		Timestamp:     ts,
		Bucket:        func(m *fleet.Mission) string { return m.NavigationState.String() },
		Buckets:       stateNames(int(fleet.NavCancelled)+1, fleet.NavigationState.String),
	}
}

// VehicleSpec projects vehicles. The default filter hides extracted
// vehicles.
func VehicleSpec() Spec[*fleet.Vehicle] {
	state := func(v *fleet.Vehicle) int { return int(v.State) }
	states := func(s ...fleet.VehicleState) []int {
		out := make([]int, len(s))
		for i, v := range s {
			out[i] = int(v)
		}
		return out
	}

	return Spec[*fleet.Vehicle]{
		Columns: []Column[*fleet.Vehicle]{
			textCol("name", func(v *fleet.Vehicle) string { return v.Name }),
			intCol("state", state, func(v *fleet.Vehicle) string { return v.State.String() }),
			textCol("location", func(v *fleet.Vehicle) string { return v.Location }),
			textCol("mission", func(v *fleet.Vehicle) string { return v.MissionID }),
			floatCol("battery", func(v *fleet.Vehicle) float64 { return v.BatteryLevel }),
			textCol("group", func(v *fleet.Vehicle) string { return v.Group }),
			textCol("type", func(v *fleet.Vehicle) string { return v.Type }),
			textCol("alarms", func(v *fleet.Vehicle) string { return strings.Join(v.Alarms, ",") }),
			timeCol("last_seen", func(v *fleet.Vehicle) time.Time { return v.LastSeen }),
		},
		Filters: map[string]Filter[*fleet.Vehicle]{
			"default": StateFilter[*fleet.Vehicle]{
				State: state,
				Allowed: states(fleet.VehicleUnknown, fleet.VehicleInserting, fleet.VehicleIdle,
					fleet.VehicleMoving, fleet.VehicleCharging, fleet.VehicleBlocked, fleet.VehicleError),
			},
			"all":       StateFilter[*fleet.Vehicle]{State: state},
			"available": StateFilter[*fleet.Vehicle]{State: state, Allowed: states(fleet.VehicleIdle, fleet.VehicleCharging)},
			"busy":      StateFilter[*fleet.Vehicle]{State: state, Allowed: states(fleet.VehicleMoving)},
			"error":     StateFilter[*fleet.Vehicle]{State: state, Allowed: states(fleet.VehicleBlocked, fleet.VehicleError)},
		},
		DefaultFilter: "default",
		DefaultSort:   []SortKey{{Column: "name"}},
		Timestamp:     func(v *fleet.Vehicle) time.Time { return v.LastSeen },
		Bucket:        func(v *fleet.Vehicle) string { return v.State.String() },
		Buckets:       stateNames(int(fleet.VehicleError)+1, fleet.VehicleState.String),
	}
}

// AlarmSpec projects alarms. The default filter hides alarms cleared more
// than three minutes ago.
func AlarmSpec() Spec[*fleet.Alarm] {
	state := func(a *fleet.Alarm) int { return int(a.State) }
	ts := (*fleet.Alarm).Timestamp
	states := func(s ...fleet.AlarmState) []int {
		out := make([]int, len(s))
		for i, v := range s {
			out[i] = int(v)
		}
		return out
	}

	return Spec[*fleet.Alarm]{
		Columns: []Column[*fleet.Alarm]{
			textCol("uuid", func(a *fleet.Alarm) string { return a.UUID }),
			textCol("source", func(a *fleet.Alarm) string { return a.SourceID }),
			textCol("source_type", func(a *fleet.Alarm) string { return a.SourceType }),
			textCol("event", func(a *fleet.Alarm) string { return a.EventName }),
			textCol("message", func(a *fleet.Alarm) string { return a.Message }),
			intCol("count", func(a *fleet.Alarm) int { return a.EventCount }, nil),
			intCol("state", state, func(a *fleet.Alarm) string { return a.State.String() }),
			timeCol("last_event", func(a *fleet.Alarm) time.Time { return a.LastEventAt }),
			timeCol("generated", func(a *fleet.Alarm) time.Time { return a.GeneratedAt }),
		},
		Filters: map[string]Filter[*fleet.Alarm]{
			"default": StateFilter[*fleet.Alarm]{
				State:     state,
				Expire:    states(fleet.AlarmCleared),
				Timestamp: ts,
				Window:    DefaultWindow,
			},
			"all":    StateFilter[*fleet.Alarm]{State: state},
			"open":   StateFilter[*fleet.Alarm]{State: state, Allowed: states(fleet.AlarmOpen, fleet.AlarmAcknowledged)},
			"closed": StateFilter[*fleet.Alarm]{State: state, Allowed: states(fleet.AlarmClosed, fleet.AlarmCleared)},
		},
		DefaultFilter: "default",
		DefaultSort:   []SortKey{{Column: "last_event", Descending: true}},
		Timestamp:     ts,
		Bucket:        func(a *fleet.Alarm) string { return a.State.String() },
		Buckets:       stateNames(int(fleet.AlarmCleared)+1, fleet.AlarmState.String),
	}
}
