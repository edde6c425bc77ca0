// Package antfleet adapts the ANT REST client to fleet.Backend.
package antfleet

import (
	"context"
	"time"

	"antmonitor/ant"
	"antmonitor/fleet"
)

// Config holds the configuration for creating an ANT adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter wraps an ant.Client to implement fleet.Backend. Wire records are
// decoded and mapped here, so callers only ever see fleet entities.
type Adapter struct {
	client *ant.Client
}

// New creates a new ANT adapter.
func New(cfg Config) *Adapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{client: ant.NewClient(cfg.BaseURL, timeout)}
}

func (a *Adapter) Name() string { return "ANT" }

func (a *Adapter) BaseURL() string { return a.client.BaseURL() }

func (a *Adapter) Connected() bool { return a.client.HasSession() }

func (a *Adapter) Reconfigure(cfg fleet.ReconfigureParams) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	a.client.Reconfigure(cfg.BaseURL, timeout)
}

func (a *Adapter) Login(ctx context.Context, username, password string) (fleet.Session, error) {
	s, err := a.client.Login(ctx, username, password)
	if err != nil {
		return fleet.Session{}, classify("login", err)
	}
	return fleet.Session{Token: s.Token, DisplayName: s.DisplayName}, nil
}

func (a *Adapter) Logout(ctx context.Context) error {
	return classify("logout", a.client.Logout(ctx))
}

func (a *Adapter) Vehicles(ctx context.Context) ([]*fleet.Vehicle, error) {
	recs, err := a.client.Vehicles(ctx)
	if err != nil {
		return nil, classify("fetch vehicles", err)
	}
	out := make([]*fleet.Vehicle, len(recs))
	for i := range recs {
		out[i] = mapVehicle(&recs[i])
	}
	return out, nil
}

func (a *Adapter) Missions(ctx context.Context) ([]*fleet.Mission, error) {
	recs, err := a.client.Missions(ctx)
	if err != nil {
		return nil, classify("fetch missions", err)
	}
	out := make([]*fleet.Mission, len(recs))
	for i := range recs {
		out[i] = mapMission(&recs[i])
	}
	return out, nil
}

func (a *Adapter) Alarms(ctx context.Context) ([]*fleet.Alarm, error) {
	recs, err := a.client.Alarms(ctx)
	if err != nil {
		return nil, classify("fetch alarms", err)
	}
	out := make([]*fleet.Alarm, len(recs))
	for i := range recs {
		out[i] = mapAlarm(&recs[i])
	}
	return out, nil
}

func (a *Adapter) Nodes(ctx context.Context) ([]*fleet.Node, error) {
	recs, err := a.client.Nodes(ctx)
	if err != nil {
		return nil, classify("fetch nodes", err)
	}
	out := make([]*fleet.Node, len(recs))
	for i := range recs {
		out[i] = mapNode(&recs[i])
	}
	return out, nil
}

func (a *Adapter) InsertVehicle(ctx context.Context, vehicle, node string) error {
	return classify("insert vehicle", a.client.InsertVehicle(ctx, vehicle, node))
}

func (a *Adapter) ExtractVehicle(ctx context.Context, vehicle string) error {
	return classify("extract vehicle", a.client.ExtractVehicle(ctx, vehicle))
}

func (a *Adapter) CreateMission(ctx context.Context, req fleet.MissionRequest) (string, error) {
	id, err := a.client.CreateMission(ctx, mapMissionRequest(req))
	if err != nil {
		return "", classify("create mission", err)
	}
	return id, nil
}

func (a *Adapter) CancelMission(ctx context.Context, missionID string) error {
	return classify("cancel mission", a.client.CancelMission(ctx, missionID))
}
