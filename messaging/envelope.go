package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Version is the envelope format version stamped on every outbound message.
const Version = 1

// Message types.
const (
	TypeChange     = "fleet.change"
	TypeConnection = "fleet.connection"
	TypeCommand    = "fleet.command"
)

// Envelope wraps every notification the monitor publishes.
type Envelope struct {
	Version   int             `json:"v"`
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Station   string          `json:"station"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"p"`
}

// ChangePayload describes one reconciliation that changed a collection.
type ChangePayload struct {
	Kind    string   `json:"kind"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Total   int      `json:"total"`
}

type ConnectionPayload struct {
	Connected bool   `json:"connected"`
	Server    string `json:"server"`
	User      string `json:"user,omitempty"`
	Error     string `json:"error,omitempty"`
}

type CommandPayload struct {
	Command  string `json:"command"`
	EntityID string `json:"entity_id"`
	Detail   string `json:"detail,omitempty"`
	Actor    string `json:"actor,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewEnvelope(msgType, station string, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Version:   Version,
		Type:      msgType,
		ID:        uuid.New().String(),
		Station:   station,
		Timestamp: time.Now().UTC(),
		Payload:   p,
	}, nil
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an encoded envelope, leaving the payload raw.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Version != Version {
		return nil, fmt.Errorf("unsupported envelope version %d", e.Version)
	}
	return &e, nil
}

func (e *Envelope) DecodePayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}
