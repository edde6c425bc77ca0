package ant

import (
	"context"
	"fmt"
	"net/url"
)

// Missions fetches the server's mission list.
func (c *Client) Missions(ctx context.Context) ([]MissionRecord, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var p missionsPayload
	if err := c.get(ctx, "/missions", &p); err != nil {
		return nil, err
	}
	return p.Missions, nil
}

// CreateMission submits a mission and returns the ID the server assigned.
func (c *Client) CreateMission(ctx context.Context, req MissionRequest) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}
	var p createMissionPayload
	if err := c.post(ctx, "/missions", createMissionRequest{Request: req}, &p); err != nil {
		return "", err
	}
	if len(p.Accepted) == 0 {
		return "", &RetcodeError{Code: RetcodeFailed, Msg: fmt.Sprintf("mission %s -> %s not accepted", req.FromNode, req.ToNode)}
	}
	return p.Accepted[0], nil
}

// CancelMission cancels a mission by ID.
func (c *Client) CancelMission(ctx context.Context, id string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.delete(ctx, "/missions/"+url.PathEscape(id), nil)
}
