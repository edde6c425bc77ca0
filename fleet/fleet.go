package fleet

import (
	"context"
	"time"
)

// Kind names one resource collection served by the fleet server.
type Kind string

const (
	KindVehicles Kind = "vehicles"
	KindMissions Kind = "missions"
	KindAlarms   Kind = "alarms"
	KindNodes    Kind = "nodes"
)

// Kinds lists every resource kind in automatic-refresh order followed by nodes.
var Kinds = []Kind{KindMissions, KindVehicles, KindAlarms, KindNodes}

// ParseKind validates a kind name from user input.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Backend is the vendor-neutral interface for fleet management servers.
// Implementations wrap vendor-specific APIs and translate their errors into
// the taxonomy in errors.go.
type Backend interface {
	// Login establishes the session used by every other call.
	Login(ctx context.Context, username, password string) (Session, error)

	// Logout drops the session. Safe to call when not connected.
	Logout(ctx context.Context) error

	// Connected reports whether a session is established.
	Connected() bool

	Vehicles(ctx context.Context) ([]*Vehicle, error)
	Missions(ctx context.Context) ([]*Mission, error)
	Alarms(ctx context.Context) ([]*Alarm, error)
	Nodes(ctx context.Context) ([]*Node, error)

	// InsertVehicle brings a vehicle into the fleet at the given node.
	InsertVehicle(ctx context.Context, vehicle, node string) error

	// ExtractVehicle removes a vehicle from the fleet.
	ExtractVehicle(ctx context.Context, vehicle string) error

	// CreateMission submits a transport mission and returns its server ID.
	CreateMission(ctx context.Context, req MissionRequest) (string, error)

	// CancelMission cancels a mission by ID.
	CancelMission(ctx context.Context, missionID string) error

	// Reconfigure points the backend at another server. Drops any session.
	Reconfigure(params ReconfigureParams)

	// Name returns a human-readable name for this backend.
	Name() string
}

// Session is the result of a successful login.
type Session struct {
	Token       string
	DisplayName string
}

// MissionRequest contains vendor-neutral parameters for creating a mission.
type MissionRequest struct {
	Type     MissionType
	FromNode string
	ToNode   string
	Vehicle  string // optional: pin to one vehicle
	Priority int
	Deadline time.Time
}

// ReconfigureParams carries connection settings applied at runtime.
type ReconfigureParams struct {
	BaseURL string
	Timeout time.Duration
}
