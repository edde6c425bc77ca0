package ant

import (
	"context"
	"fmt"
)

// Login authenticates and stores the session token used by later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	var p loginPayload
	if err := c.post(ctx, "/login", loginRequest{Username: username, Password: password}, &p); err != nil {
		return nil, err
	}
	if p.SessionToken == "" {
		return nil, &DecodeError{Path: "/login", Err: fmt.Errorf("empty session token")}
	}
	display := p.DisplayName
	if display == "" {
		display = username
	}

	c.mu.Lock()
	c.token = p.SessionToken
	c.mu.Unlock()
	return &Session{Token: p.SessionToken, DisplayName: display}, nil
}

// Logout ends the session. The local token is dropped even if the server
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.HasSession() {
		return nil
	}
	err := c.post(ctx, "/logout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return err
}
