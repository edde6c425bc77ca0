package antfleet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"antmonitor/ant"
	"antmonitor/fleet"
)

func testAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wms/rest/login" {
			w.Write([]byte(`{"retcode":0,"payload":{"sessiontoken":"t","displayname":"Op"}}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	a := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	sess, err := a.Login(context.Background(), "op", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.DisplayName != "Op" || !a.Connected() {
		t.Fatalf("session = %+v, connected = %v", sess, a.Connected())
	}
	return a
}

func TestMapMission(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retcode":0,"payload":{"missions":[
			{"missionid":"M1","missiontype":3,"fromnode":"A","tonode":"B","assignedto":"V1",
			 "navigationstate":4,"transportstate":11,"priority":2,
			 "createdat":"2026-03-01T10:00:00Z","arrivingtime":"0001-01-01T00:00:00"},
			{"missionid":"M2"}
		]}}`))
	})

	ms, err := a.Missions(context.Background())
	if err != nil {
		t.Fatalf("Missions: %v", err)
	}
	m := ms[0]
	if m.ID != "M1" || m.Type != fleet.MissionTransport || m.Vehicle != "V1" {
		t.Errorf("mission = %+v", m)
	}
	if m.NavigationState != fleet.NavTerminated || m.TransportState != fleet.TransportDelivered || m.Priority != 2 {
		t.Errorf("states = %v/%v/%d", m.NavigationState, m.TransportState, m.Priority)
	}
	if !m.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if !m.ArrivingTime.IsZero() {
		t.Errorf("sentinel arriving time should map to zero and not be backfilled on creation, got %v", m.ArrivingTime)
	}
	if ms[1].NavigationState != fleet.NavReceived || !ms[1].CreatedAt.IsZero() {
		t.Errorf("absent fields should default to zero: %+v", ms[1])
	}
}

func TestMapVehicle(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retcode":0,"payload":{"vehicles":[
			{"name":"V1","operatingstate":4,"batterylevel":55,"missionid":"M1",
			 "location":{"currentnode":"N3","coord":[10.5,-2,180],"mapname":"hall","level":1},
			 "alarms":["low battery"],"path":["N3","N4"],
			 "action":{"state":2,"name":"drive"},
			 "sharedmemory":{"in":[1,0],"out":[0,1]},
			 "connected":true,"lastupdate":"2026-03-01 09:59:58"}
		]}}`))
	})

	vs, err := a.Vehicles(context.Background())
	if err != nil {
		t.Fatalf("Vehicles: %v", err)
	}
	v := vs[0]
	if v.State != fleet.VehicleMoving || v.BatteryLevel != 55 || v.Location != "N3" {
		t.Errorf("vehicle = %+v", v)
	}
	if v.X != 10.5 || v.Y != -2 || v.Course != 180 || v.MapName != "hall" || v.Level != 1 {
		t.Errorf("position = %v,%v,%v %s/%d", v.X, v.Y, v.Course, v.MapName, v.Level)
	}
	if len(v.Path) != 2 || v.ActionName != "drive" || len(v.SharedMemoryOut) != 2 || !v.Connected {
		t.Errorf("telemetry = %+v", v)
	}
	if v.LastSeen.IsZero() {
		t.Error("LastSeen not parsed")
	}
}

func TestMapAlarmAndNode(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wms/rest/alarms":
			w.Write([]byte(`{"retcode":0,"payload":{"alarms":[
				{"uuid":"u1","sourceid":"V1","eventname":"obstacle","alarmmessage":"blocked",
				 "eventcount":3,"state":3,"lasteventat":"2026-03-01T09:00:00Z","clearedat":"2026-03-01T09:05:00Z"}
			]}}`))
		case "/wms/rest/maps/nodes":
			w.Write([]byte(`{"retcode":0,"payload":{"nodes":[{"name":"Dock","group":"south","coord":[1,2]}]}}`))
		}
	})

	as, err := a.Alarms(context.Background())
	if err != nil {
		t.Fatalf("Alarms: %v", err)
	}
	al := as[0]
	if al.State != fleet.AlarmCleared || al.EventCount != 3 || al.Message != "blocked" {
		t.Errorf("alarm = %+v", al)
	}
	if al.ClosedAt != nil || al.ClearedAt == nil {
		t.Errorf("closed = %v, cleared = %v", al.ClosedAt, al.ClearedAt)
	}
	if !al.Timestamp().Equal(*al.ClearedAt) {
		t.Errorf("Timestamp = %v, want cleared time", al.Timestamp())
	}

	ns, err := a.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if ns[0].Key() != "Dock" || ns[0].Area != "south" || ns[0].Y != 2 {
		t.Errorf("node = %+v", ns[0])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{ant.ErrNoSession, fleet.ErrNotConnected},
		{&ant.StatusError{Code: 401}, fleet.ErrAuth},
		{&ant.StatusError{Code: 403}, fleet.ErrAuth},
		{&ant.StatusError{Code: 503}, fleet.ErrServer},
		{&ant.RetcodeError{Code: ant.RetcodeUnauthorized}, fleet.ErrAuth},
		{&ant.RetcodeError{Code: ant.RetcodeFailed}, fleet.ErrServer},
		{&ant.DecodeError{Path: "/x", Err: errors.New("eof")}, fleet.ErrParse},
		{fmt.Errorf("ant GET /vehicles: %w", context.DeadlineExceeded), fleet.ErrNetwork},
	}
	for _, tt := range tests {
		err := classify("op", tt.err)
		if !errors.Is(err, tt.want) {
			t.Errorf("classify(%v) = %v, want kind %v", tt.err, err, tt.want)
		}
		if !errors.Is(err, tt.err) && !errors.Is(err, errors.Unwrap(tt.err)) {
			t.Errorf("classify(%v) lost the cause", tt.err)
		}
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestNotConnected(t *testing.T) {
	a := New(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := a.Vehicles(context.Background()); !errors.Is(err, fleet.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
	if a.Connected() {
		t.Error("Connected = true without login")
	}
}

func TestServerErrorClassified(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusUnauthorized)
	})
	_, err := a.Missions(context.Background())
	if !errors.Is(err, fleet.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if fleet.ErrorKind(err) != fleet.ErrAuth {
		t.Errorf("ErrorKind = %v", fleet.ErrorKind(err))
	}
}

func TestMapMissionRequest(t *testing.T) {
	dl := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	got := mapMissionRequest(fleet.MissionRequest{Type: fleet.MissionPick, FromNode: "A", ToNode: "B", Deadline: dl})
	if got.MissionType != int(fleet.MissionPick) || got.Deadline != "2026-03-01T11:00:00Z" {
		t.Errorf("request = %+v", got)
	}
}
