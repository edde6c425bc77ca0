package ant

import "encoding/json"

// envelope wraps every server response.
type envelope struct {
	Retcode int             `json:"retcode"`
	Msg     string          `json:"msg"`
	Payload json.RawMessage `json:"payload"`
}

// --- Session ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"pwd"`
}

type loginPayload struct {
	SessionToken string `json:"sessiontoken"`
	DisplayName  string `json:"displayname"`
}

// Session is an authenticated server session.
type Session struct {
	Token       string
	DisplayName string
}

// --- Vehicles ---

type VehicleLocation struct {
	CurrentNode string    `json:"currentnode"`
	Coord       []float64 `json:"coord"` // x, y, course
	MapName     string    `json:"mapname"`
	Level       *int      `json:"level"`
}

type VehicleAction struct {
	State int    `json:"state"`
	Name  string `json:"name"`
}

type SharedMemory struct {
	In  []int `json:"in"`
	Out []int `json:"out"`
}

// VehicleRecord is one vehicle as sent by the server. Pointer fields are
// optional and default to zero when absent.
type VehicleRecord struct {
	Name           string           `json:"name"`
	OperatingState *int             `json:"operatingstate"`
	Location       *VehicleLocation `json:"location"`
	MissionID      string           `json:"missionid"`
	BatteryLevel   *float64         `json:"batterylevel"`
	Alarms         []string         `json:"alarms"`
	Path           []string         `json:"path"`
	Group          string           `json:"group"`
	Type           string           `json:"vehicletype"`
	IP             string           `json:"ip"`
	Connected      *bool            `json:"connected"`
	Locked         *bool            `json:"locked"`
	LockedBy       string           `json:"lockedby"`
	Errors         []string         `json:"errors"`
	Warnings       []string         `json:"warnings"`
	Action         *VehicleAction   `json:"action"`
	Speed          *float64         `json:"speed"`
	Payload        string           `json:"payload"`
	Charging       *bool            `json:"charging"`
	Dispatchable   *bool            `json:"dispatchable"`
	Uptime         *int64           `json:"uptime"`
	Odometer       *float64         `json:"odometer"`
	SharedMemory   *SharedMemory    `json:"sharedmemory"`
	LastUpdate     string           `json:"lastupdate"`
}

type vehiclesPayload struct {
	Vehicles []VehicleRecord `json:"vehicles"`
}

type vehicleCommand struct {
	Command struct {
		Name string            `json:"name"`
		Args map[string]string `json:"args,omitempty"`
	} `json:"command"`
}

// --- Missions ---

// MissionRecord is one mission as sent by the server. Timestamps are raw
// strings; the server sends an all-zero sentinel for unset values.
type MissionRecord struct {
	MissionID       string `json:"missionid"`
	MissionType     *int   `json:"missiontype"`
	FromNode        string `json:"fromnode"`
	ToNode          string `json:"tonode"`
	AssignedTo      string `json:"assignedto"`
	NavigationState *int   `json:"navigationstate"`
	TransportState  *int   `json:"transportstate"`
	Priority        *int   `json:"priority"`
	CreatedAt       string `json:"createdat"`
	ArrivingTime    string `json:"arrivingtime"`
}

type missionsPayload struct {
	Missions []MissionRecord `json:"missions"`
}

// MissionRequest asks the server to create one mission.
type MissionRequest struct {
	MissionType int    `json:"missiontype"`
	FromNode    string `json:"fromnode"`
	ToNode      string `json:"tonode"`
	Vehicle     string `json:"vehicle,omitempty"`
	Priority    int    `json:"priority"`
	Deadline    string `json:"deadline,omitempty"`
}

type createMissionRequest struct {
	Request MissionRequest `json:"missionrequest"`
}

type createMissionPayload struct {
	Accepted []string `json:"acceptedmissions"`
}

// --- Alarms ---

type AlarmRecord struct {
	UUID         string `json:"uuid"`
	SourceID     string `json:"sourceid"`
	SourceType   string `json:"sourcetype"`
	EventName    string `json:"eventname"`
	AlarmMessage string `json:"alarmmessage"`
	EventCount   *int   `json:"eventcount"`
	FirstEventAt string `json:"firsteventat"`
	LastEventAt  string `json:"lasteventat"`
	Timestamp    string `json:"timestamp"`
	State        *int   `json:"state"`
	ClosedAt     string `json:"closedat"`
	ClearedAt    string `json:"clearedat"`
}

type alarmsPayload struct {
	Alarms []AlarmRecord `json:"alarms"`
}

// --- Map ---

type NodeRecord struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Group string    `json:"group"`
	Coord []float64 `json:"coord"`
	Links []string  `json:"links"`
}

type nodesPayload struct {
	Nodes []NodeRecord `json:"nodes"`
}
