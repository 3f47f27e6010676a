// Package daemonctl is the CLI's client for a running atelierd: a thin
// HTTP wrapper over the daemon API plus helpers to launch the daemon as a
// detached process.
package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atelier/internal/api"
	"atelier/internal/config"
)

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the configured API address.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: "http://" + strings.TrimSpace(cfg.Paths.APIBind),
		token:   cfg.Paths.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the daemon status summary.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health fetches the store health counters.
func (c *Client) Health(ctx context.Context) (*api.HealthSummary, error) {
	var health api.HealthSummary
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Artists fetches the full roster.
func (c *Client) Artists(ctx context.Context) ([]api.Artist, error) {
	var artists []api.Artist
	if err := c.do(ctx, http.MethodGet, "/api/artists", nil, &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

// Artist fetches one compliance record.
func (c *Client) Artist(ctx context.Context, userID int64) (*api.Artist, error) {
	var artist api.Artist
	path := fmt.Sprintf("/api/artists/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// SubmitEvent reports a qualifying upload for an artist.
func (c *Client) SubmitEvent(ctx context.Context, userID int64, occurredAt time.Time) (*api.Artist, error) {
	req := api.EventRequest{}
	if !occurredAt.IsZero() {
		req.OccurredAt = occurredAt.UTC().Format(time.RFC3339)
	}
	var artist api.Artist
	path := fmt.Sprintf("/api/artists/%d/events", userID)
	if err := c.do(ctx, http.MethodPost, path, req, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// SetCommitment opts an artist in or out of the upload commitment.
func (c *Client) SetCommitment(ctx context.Context, userID int64, committed bool) (*api.Artist, error) {
	var artist api.Artist
	path := fmt.Sprintf("/api/artists/%d/commit", userID)
	if err := c.do(ctx, http.MethodPost, path, api.CommitRequest{Committed: committed}, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Reset administratively restores an artist to a clean slate.
func (c *Client) Reset(ctx context.Context, userID int64) (*api.Artist, error) {
	var artist api.Artist
	path := fmt.Sprintf("/api/artists/%d/reset", userID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// SubmitPlan schedules a reminder plan.
func (c *Client) SubmitPlan(ctx context.Context, req api.PlanRequest) (*api.PlanResponse, error) {
	var resp api.PlanResponse
	if err := c.do(ctx, http.MethodPost, "/api/plans", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunScan triggers an immediate scan pass.
func (c *Client) RunScan(ctx context.Context) (*api.ScanReport, error) {
	var report api.ScanReport
	if err := c.do(ctx, http.MethodPost, "/api/scan", struct{}{}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// TestNotification asks the daemon to send a gateway test message.
func (c *Client) TestNotification(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/test", struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(detail, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}
