package fleet

import (
	"errors"
	"testing"
	"time"
)

func TestMissionUpdateFromKeepsTimestampsOnEmptyPayload(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	arriving := created.Add(10 * time.Minute)
	m := &Mission{ID: "M1", CreatedAt: created, ArrivingTime: arriving}

	changed := m.UpdateFrom(&Mission{ID: "M1", NavigationState: NavStarted})
	if !changed {
		t.Fatal("expected change for new navigation state")
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, created)
	}
	if !m.ArrivingTime.Equal(arriving) {
		t.Errorf("ArrivingTime = %v, want %v", m.ArrivingTime, arriving)
	}
	if m.NavigationState != NavStarted {
		t.Errorf("NavigationState = %v, want started", m.NavigationState)
	}
}

func TestMissionUpdateFromBackfillsArrivingTime(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	m := &Mission{ID: "M1"}
	m.UpdateFrom(&Mission{ID: "M1", CreatedAt: created})
	if !m.ArrivingTime.Equal(created) {
		t.Errorf("ArrivingTime = %v, want backfill %v", m.ArrivingTime, created)
	}
}

func TestMissionUpdateFromIdempotent(t *testing.T) {
	src := &Mission{ID: "M1", FromNode: "A", ToNode: "B", Priority: 3,
		CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	m := &Mission{ID: "M1"}
	if !m.UpdateFrom(src) {
		t.Fatal("first update should report a change")
	}
	if m.UpdateFrom(src) {
		t.Error("second identical update should be a no-op")
	}
}

func TestVehicleUpdateFromCopiesSlices(t *testing.T) {
	src := &Vehicle{Name: "V1", BatteryLevel: 55, Path: []string{"n1", "n2"}}
	v := &Vehicle{Name: "V1", BatteryLevel: 80}
	if !v.UpdateFrom(src) {
		t.Fatal("expected change")
	}
	if v.BatteryLevel != 55 {
		t.Errorf("BatteryLevel = %v, want 55", v.BatteryLevel)
	}
	src.Path[0] = "mutated"
	if v.Path[0] != "n1" {
		t.Errorf("Path shares storage with source: %v", v.Path)
	}
	if v.UpdateFrom(&Vehicle{Name: "V1", BatteryLevel: 55, Path: []string{"n1", "n2"}}) {
		t.Error("identical update should be a no-op")
	}
}

func TestAlarmUpdateFromOverwritesUnconditionally(t *testing.T) {
	closed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &Alarm{UUID: "A1", Message: "bumper", State: AlarmClosed, ClosedAt: &closed, EventCount: 3}
	if !a.UpdateFrom(&Alarm{UUID: "A1", Message: "bumper", State: AlarmOpen}) {
		t.Fatal("expected change")
	}
	if a.ClosedAt != nil {
		t.Errorf("ClosedAt = %v, want nil", a.ClosedAt)
	}
	if a.EventCount != 0 {
		t.Errorf("EventCount = %d, want 0", a.EventCount)
	}
	if a.UUID != "A1" {
		t.Errorf("UUID = %q", a.UUID)
	}
}

func TestNodeKeyFallsBackToName(t *testing.T) {
	if got := (&Node{Name: "dock-1"}).Key(); got != "dock-1" {
		t.Errorf("Key = %q, want dock-1", got)
	}
	if got := (&Node{ID: "17", Name: "dock-1"}).Key(); got != "17" {
		t.Errorf("Key = %q, want 17", got)
	}
}

func TestStateNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{NavTerminated.String(), "terminated"},
		{TransportOnHold.String(), "on_hold"},
		{AlarmCleared.String(), "cleared"},
		{VehicleCharging.String(), "charging"},
		{NavigationState(42).String(), "nav-42"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestErrorIsKind(t *testing.T) {
	err := &Error{Kind: ErrAuth, Op: "fetch vehicles"}
	if !errors.Is(err, ErrAuth) {
		t.Error("expected errors.Is(err, ErrAuth)")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("unexpected match on ErrNetwork")
	}
	if ErrorKind(err) != ErrAuth {
		t.Errorf("ErrorKind = %v, want ErrAuth", ErrorKind(err))
	}
}
