// Package ant is a client for the ANT fleet server REST API.
package ant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/wms/rest"

type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// do sends one request and unwraps the response envelope into result.
// Paths are relative to the API prefix; the session token is attached
// when one is held.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ant marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	c.mu.RLock()
	u := c.baseURL + apiPrefix + path
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "sessiontoken=" + url.QueryEscape(token)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("ant %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return c.decode(path, resp, result)
}

func (c *Client) decode(path string, resp *http.Response, result any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ant read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if env.Retcode != RetcodeOK {
		return &RetcodeError{Code: env.Retcode, Msg: env.Msg}
	}
	if result != nil && len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, result); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Reconfigure points the client at another server. The session is dropped
// since tokens are not portable between servers.
func (c *Client) Reconfigure(baseURL string, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	c.token = ""
}

// HasSession reports whether Login has succeeded since the last Logout.
func (c *Client) HasSession() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) requireSession() error {
	if !c.HasSession() {
		return ErrNoSession
	}
	return nil
}
