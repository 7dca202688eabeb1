// Package remote implements the graph store backed by the sync backend: each
// mutation is one HTTP request, and the committed snapshot only ever changes
// by refetching the complete state after a success.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the backend. Message is the backend's
// own error text when the body carried one, otherwise a generic status line.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client speaks the backend's HTTP/JSON protocol. Identity travels in the
// x-user-id header on every request; an admin key, when present, in
// x-admin-key.
type Client struct {
	baseURL  string
	clientID string
	httpc    *http.Client

	// AdminKey supplies the current admin key per request, "" when not in
	// admin mode. Set after construction once the authorizer exists.
	AdminKey func() string
}

func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-user-id", c.clientID)
	if c.AdminKey != nil {
		if key := c.AdminKey(); key != "" {
			req.Header.Set("x-admin-key", key)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError extracts the backend's {"error": ...} message, tolerating an
// absent or malformed body.
func apiError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: status, Message: payload.Error}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
}

// PingAdmin verifies a candidate admin key against the backend.
func (c *Client) PingAdmin(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/admin/ping", nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-admin-key", key)
	req.Header.Set("x-user-id", c.clientID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, data)
	}
	return nil
}
