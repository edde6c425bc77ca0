package ant

import "context"

// Alarms fetches the server's alarm list.
func (c *Client) Alarms(ctx context.Context) ([]AlarmRecord, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var p alarmsPayload
	if err := c.get(ctx, "/alarms", &p); err != nil {
		return nil, err
	}
	return p.Alarms, nil
}

// Nodes fetches the map nodes of the active layout.
func (c *Client) Nodes(ctx context.Context) ([]NodeRecord, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var p nodesPayload
	if err := c.get(ctx, "/maps/nodes", &p); err != nil {
		return nil, err
	}
	return p.Nodes, nil
}
