package probe

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

// client is a small JSON client for the gridiron API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes a JSON body into out when the status is want.
func (c *client) do(ctx context.Context, method, path string, body, out any, want int) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrBadResponse, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrBadResponse, path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &body, http.StatusOK); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, body.Status)
	}
	return nil
}

func (c *client) teams(ctx context.Context) ([]string, error) {
	var body struct {
		Teams []string `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams", nil, &body, http.StatusOK); err != nil {
		return nil, err
	}
	return body.Teams, nil
}

func (c *client) retune(ctx context.Context, mode string) (string, error) {
	var body struct {
		Status string `json:"status"`
		TaskID string `json:"task_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/retune?mode="+mode, nil, &body, http.StatusAccepted); err != nil {
		return "", err
	}
	if body.TaskID == "" {
		return "", fmt.Errorf("%w: retune returned no task id", ErrBadResponse)
	}
	return body.TaskID, nil
}

func (c *client) task(ctx context.Context, id string) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodGet, "/retune/"+id, nil, &t, http.StatusOK)
	return t, err
}

func (c *client) predict(ctx context.Context, m Matchup) (Prediction, error) {
	var p Prediction
	err := c.do(ctx, http.MethodPost, "/predict", m, &p, http.StatusOK)
	return p, err
}
