// Package roles talks to the external member directory that owns user role
// assignments. The compliance engine only ever moves an artist between the
// configured artist and member roles; the directory remains the source of
// truth for everything else about the user.
package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atelier/internal/config"
)

const userAgent = "Atelier-Go/0.1.0"

// Client assigns directory roles.
type Client interface {
	SetRole(ctx context.Context, userID int64, role string) error
}

// NewClient builds a directory client from configuration. When no directory
// URL is configured, role changes become no-ops so the engine can run
// standalone.
func NewClient(cfg *config.Config) Client {
	endpoint := strings.TrimSpace(cfg.Roles.DirectoryURL)
	if endpoint == "" {
		return noopClient{}
	}

	timeout := time.Duration(cfg.Roles.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    strings.TrimSpace(cfg.Roles.APIToken),
		client:   &http.Client{Timeout: timeout},
	}
}

type httpClient struct {
	endpoint string
	token    string
	client   *http.Client
}

type roleRequest struct {
	Role string `json:"role"`
}

func (c *httpClient) SetRole(ctx context.Context, userID int64, role string) error {
	body, err := json.Marshal(roleRequest{Role: role})
	if err != nil {
		return fmt.Errorf("encode role request: %w", err)
	}

	url := fmt.Sprintf("%s/users/%d/role", c.endpoint, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build role request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("assign role %q to user %d: %w", role, userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("directory returned %d assigning role %q to user %d: %s",
			resp.StatusCode, role, userID, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopClient struct{}

func (noopClient) SetRole(context.Context, int64, string) error { return nil }
