package engine

import (
	"antmonitor/fleet"
	"antmonitor/poller"
)

const (
	EventConnected EventType = iota + 1
	EventDisconnected
	EventConnectFailed
	EventCollectionChanged
	EventRefreshStatus
	EventCriteriaChanged
	EventCommandIssued
	EventRoutesChanged
)

var eventNames = map[EventType]string{
	EventConnected:         "connected",
	EventDisconnected:      "disconnected",
	EventConnectFailed:     "connect_failed",
	EventCollectionChanged: "collection_changed",
	EventRefreshStatus:     "refresh_status",
	EventCriteriaChanged:   "criteria_changed",
	EventCommandIssued:     "command",
	EventRoutesChanged:     "routes_changed",
}

// String is the event name used on the SSE stream.
func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// --- Event payloads ---

type ConnectionEvent struct {
	Server      string `json:"server"`
	User        string `json:"user,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CollectionChangedEvent is emitted on the loop after a reconciliation that
// added, removed or updated at least one entry.
type CollectionChangedEvent struct {
	Kind    fleet.Kind `json:"kind"`
	Added   []string   `json:"added,omitempty"`
	Removed []string   `json:"removed,omitempty"`
	Updated []string   `json:"updated,omitempty"`
	Total   int        `json:"total"`
}

type RefreshStatusEvent struct {
	poller.Status
	Text string `json:"text"`
}

type CriteriaChangedEvent struct {
	Kind fleet.Kind `json:"kind"`
}

type CommandEvent struct {
	Command  string `json:"command"`
	EntityID string `json:"entity_id"`
	Detail   string `json:"detail,omitempty"`
	Actor    string `json:"actor,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RoutesChangedEvent struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted,omitempty"`
}
