package fleet

import "strconv"

// VehicleState is the operating state code reported for a vehicle.
type VehicleState int

const (
	VehicleUnknown VehicleState = iota
	VehicleExtracted
	VehicleInserting
	VehicleIdle
	VehicleMoving
	VehicleCharging
	VehicleBlocked
	VehicleError
)

var vehicleStateNames = [...]string{
	"unknown", "extracted", "inserting", "idle", "moving", "charging", "blocked", "error",
}

func (s VehicleState) String() string {
	if s >= 0 && int(s) < len(vehicleStateNames) {
		return vehicleStateNames[s]
	}
	return "state-" + strconv.Itoa(int(s))
}

// MissionType is the kind of work a mission asks a vehicle to do.
type MissionType int

const (
	MissionMove MissionType = iota
	MissionPick
	MissionDrop
	MissionTransport
	MissionCharge
)

var missionTypeNames = [...]string{"move", "pick", "drop", "transport", "charge"}

func (t MissionType) String() string {
	if t >= 0 && int(t) < len(missionTypeNames) {
		return missionTypeNames[t]
	}
	return "type-" + strconv.Itoa(int(t))
}

// NavigationState is the mission lifecycle stage (0-5).
type NavigationState int

const (
	NavReceived NavigationState = iota
	NavAccepted
	NavRejected
	NavStarted
	NavTerminated
	NavCancelled
)

var navigationStateNames = [...]string{
	"received", "accepted", "rejected", "started", "terminated", "cancelled",
}

func (s NavigationState) String() string {
	if s >= 0 && int(s) < len(navigationStateNames) {
		return navigationStateNames[s]
	}
	return "nav-" + strconv.Itoa(int(s))
}

// TransportState is the detailed transport progress of a mission (0-15).
type TransportState int

const (
	TransportNew TransportState = iota
	TransportAccepted
	TransportRejected
	TransportAssigned
	TransportMovingToPick
	TransportArrivedAtPick
	TransportPicking
	TransportPicked
	TransportMovingToDrop
	TransportArrivedAtDrop
	TransportDropping
	TransportDelivered
	TransportCancelling
	TransportCancelled
	TransportFailed
	TransportOnHold
)

var transportStateNames = [...]string{
	"new", "accepted", "rejected", "assigned",
	"moving_to_pick", "arrived_at_pick", "picking", "picked",
	"moving_to_drop", "arrived_at_drop", "dropping", "delivered",
	"cancelling", "cancelled", "failed", "on_hold",
}

func (s TransportState) String() string {
	if s >= 0 && int(s) < len(transportStateNames) {
		return transportStateNames[s]
	}
	return "transport-" + strconv.Itoa(int(s))
}

// AlarmState is the alarm lifecycle (0-3).
type AlarmState int

const (
	AlarmOpen AlarmState = iota
	AlarmAcknowledged
	AlarmClosed
	AlarmCleared
)

var alarmStateNames = [...]string{"open", "acknowledged", "closed", "cleared"}

func (s AlarmState) String() string {
	if s >= 0 && int(s) < len(alarmStateNames) {
		return alarmStateNames[s]
	}
	return "alarm-" + strconv.Itoa(int(s))
}
