package ant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	client := NewClient(srv.URL, 5*time.Second)
	return srv, client
}

func reply(w http.ResponseWriter, payload any) {
	raw, _ := json.Marshal(payload)
	json.NewEncoder(w).Encode(envelope{Retcode: RetcodeOK, Payload: raw})
}

// loggedIn returns a client holding session token "tok".
func loggedIn(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiPrefix+"/login" {
			reply(w, loginPayload{SessionToken: "tok", DisplayName: "Operator"})
			return
		}
		if got := r.URL.Query().Get("sessiontoken"); got != "tok" {
			t.Errorf("sessiontoken = %q, want tok", got)
		}
		handler(w, r)
	})
	if _, err := client.Login(context.Background(), "op", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return srv, client
}

func TestLogin(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wms/rest/login" {
			t.Errorf("path = %q, want /wms/rest/login", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "admin" || req.Password != "secret" {
			t.Errorf("credentials = %+v", req)
		}
		reply(w, loginPayload{SessionToken: "abc123"})
	})
	defer srv.Close()

	sess, err := client.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "abc123" {
		t.Errorf("Token = %q", sess.Token)
	}
	if sess.DisplayName != "admin" {
		t.Errorf("DisplayName = %q, want username fallback", sess.DisplayName)
	}
	if !client.HasSession() {
		t.Error("HasSession = false after login")
	}
}

func TestLogin_Rejected(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(envelope{Retcode: RetcodeUnauthorized, Msg: "invalid credentials"})
	})
	defer srv.Close()

	_, err := client.Login(context.Background(), "admin", "wrong")
	var rc *RetcodeError
	if !errors.As(err, &rc) || rc.Code != RetcodeUnauthorized {
		t.Fatalf("err = %v, want RetcodeError %d", err, RetcodeUnauthorized)
	}
	if client.HasSession() {
		t.Error("failed login must not leave a session")
	}
}

func TestFetchWithoutSession(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	})
	defer srv.Close()

	ctx := context.Background()
	if _, err := client.Vehicles(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Vehicles err = %v", err)
	}
	if _, err := client.Missions(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Missions err = %v", err)
	}
	if _, err := client.Alarms(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Alarms err = %v", err)
	}
	if _, err := client.Nodes(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Nodes err = %v", err)
	}
	if err := client.CancelMission(ctx, "m1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("CancelMission err = %v", err)
	}
}

func TestVehicles(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wms/rest/vehicles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"retcode":0,"payload":{"vehicles":[
			{"name":"V1","operatingstate":3,"batterylevel":81.5,"location":{"currentnode":"N1","coord":[1,2,90]}},
			{"name":"V2"}
		]}}`))
	})
	defer srv.Close()

	vs, err := client.Vehicles(context.Background())
	if err != nil {
		t.Fatalf("Vehicles: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("len = %d, want 2", len(vs))
	}
	if vs[0].OperatingState == nil || *vs[0].OperatingState != 3 {
		t.Errorf("V1 state = %v", vs[0].OperatingState)
	}
	if vs[0].Location == nil || vs[0].Location.CurrentNode != "N1" {
		t.Errorf("V1 location = %+v", vs[0].Location)
	}
	if vs[1].BatteryLevel != nil || vs[1].Location != nil {
		t.Errorf("V2 optional fields should be nil: %+v", vs[1])
	}
}

func TestMissionsAndAlarms(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wms/rest/missions":
			reply(w, missionsPayload{Missions: []MissionRecord{{MissionID: "M1", FromNode: "A", ToNode: "B"}}})
		case "/wms/rest/alarms":
			reply(w, alarmsPayload{Alarms: []AlarmRecord{{UUID: "u-1", EventName: "obstacle"}}})
		case "/wms/rest/maps/nodes":
			reply(w, nodesPayload{Nodes: []NodeRecord{{ID: "n1", Name: "Dock"}}})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})
	defer srv.Close()

	ctx := context.Background()
	ms, err := client.Missions(ctx)
	if err != nil || len(ms) != 1 || ms[0].MissionID != "M1" {
		t.Errorf("Missions = %+v, %v", ms, err)
	}
	as, err := client.Alarms(ctx)
	if err != nil || len(as) != 1 || as[0].UUID != "u-1" {
		t.Errorf("Alarms = %+v, %v", as, err)
	}
	ns, err := client.Nodes(ctx)
	if err != nil || len(ns) != 1 || ns[0].Name != "Dock" {
		t.Errorf("Nodes = %+v, %v", ns, err)
	}
}

func TestCreateMission(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wms/rest/missions" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req createMissionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Request.FromNode != "Loc-A" || req.Request.ToNode != "Loc-B" {
			t.Errorf("request = %+v", req.Request)
		}
		reply(w, createMissionPayload{Accepted: []string{"M42"}})
	})
	defer srv.Close()

	id, err := client.CreateMission(context.Background(), MissionRequest{FromNode: "Loc-A", ToNode: "Loc-B"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	if id != "M42" {
		t.Errorf("id = %q, want M42", id)
	}
}

func TestCreateMission_NotAccepted(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, createMissionPayload{})
	})
	defer srv.Close()

	if _, err := client.CreateMission(context.Background(), MissionRequest{}); err == nil {
		t.Fatal("expected error when no mission accepted")
	}
}

func TestVehicleCommands(t *testing.T) {
	var got []vehicleCommand
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wms/rest/vehicles/AGV 1/command" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var cmd vehicleCommand
		json.NewDecoder(r.Body).Decode(&cmd)
		got = append(got, cmd)
		reply(w, nil)
	})
	defer srv.Close()

	ctx := context.Background()
	if err := client.InsertVehicle(ctx, "AGV 1", "N7"); err != nil {
		t.Fatalf("InsertVehicle: %v", err)
	}
	if err := client.ExtractVehicle(ctx, "AGV 1"); err != nil {
		t.Fatalf("ExtractVehicle: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("commands = %d, want 2", len(got))
	}
	if got[0].Command.Name != "insert" || got[0].Command.Args["node"] != "N7" {
		t.Errorf("insert = %+v", got[0])
	}
	if got[1].Command.Name != "extract" {
		t.Errorf("extract = %+v", got[1])
	}
}

func TestCancelMission(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/wms/rest/missions/M1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		reply(w, nil)
	})
	defer srv.Close()

	if err := client.CancelMission(context.Background(), "M1"); err != nil {
		t.Fatalf("CancelMission: %v", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		check func(t *testing.T, err error)
	}{
		{
			name: "http status",
			write: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("internal error"))
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != 500 || se.Body != "internal error" {
					t.Errorf("err = %v", err)
				}
			},
		},
		{
			name:  "retcode",
			write: func(w http.ResponseWriter) { w.Write([]byte(`{"retcode":1,"msg":"busy"}`)) },
			check: func(t *testing.T, err error) {
				var re *RetcodeError
				if !errors.As(err, &re) || re.Msg != "busy" {
					t.Errorf("err = %v", err)
				}
			},
		},
		{
			name:  "malformed envelope",
			write: func(w http.ResponseWriter) { w.Write([]byte(`not json`)) },
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Errorf("err = %v", err)
				}
			},
		},
		{
			name:  "malformed payload",
			write: func(w http.ResponseWriter) { w.Write([]byte(`{"retcode":0,"payload":{"vehicles":"nope"}}`)) },
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) || de.Path != "/vehicles" {
					t.Errorf("err = %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) { tt.write(w) })
			defer srv.Close()
			_, err := client.Vehicles(context.Background())
			tt.check(t, err)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Vehicles(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("transport failure reported as HTTP status: %v", err)
	}
}

func TestLogoutAndReconfigure(t *testing.T) {
	logouts := 0
	srv, client := loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wms/rest/logout" {
			logouts++
		}
		reply(w, nil)
	})
	defer srv.Close()

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if logouts != 1 || client.HasSession() {
		t.Errorf("logouts = %d, session = %v", logouts, client.HasSession())
	}
	if err := client.Logout(context.Background()); err != nil || logouts != 1 {
		t.Errorf("second logout should be a no-op: %v, %d", err, logouts)
	}

	if _, err := client.Login(context.Background(), "op", "pw"); err != nil {
		t.Fatal(err)
	}
	client.Reconfigure("http://example.invalid/", time.Second)
	if client.HasSession() {
		t.Error("Reconfigure should drop the session")
	}
	if client.BaseURL() != "http://example.invalid" {
		t.Errorf("BaseURL = %q", client.BaseURL())
	}
}
