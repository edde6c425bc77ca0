package ant

import (
	"context"
	"net/url"
)

// Vehicles fetches every vehicle known to the server.
func (c *Client) Vehicles(ctx context.Context) ([]VehicleRecord, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var p vehiclesPayload
	if err := c.get(ctx, "/vehicles", &p); err != nil {
		return nil, err
	}
	return p.Vehicles, nil
}

// InsertVehicle places a vehicle into the system at node.
func (c *Client) InsertVehicle(ctx context.Context, name, node string) error {
	return c.vehicleCommand(ctx, name, "insert", map[string]string{"node": node})
}

// ExtractVehicle takes a vehicle out of the system.
func (c *Client) ExtractVehicle(ctx context.Context, name string) error {
	return c.vehicleCommand(ctx, name, "extract", nil)
}

func (c *Client) vehicleCommand(ctx context.Context, name, command string, args map[string]string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	var req vehicleCommand
	req.Command.Name = command
	req.Command.Args = args
	return c.post(ctx, "/vehicles/"+url.PathEscape(name)+"/command", req, nil)
}
