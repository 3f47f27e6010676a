// Package notifications delivers artist-facing messages through an
// ntfy-compatible gateway and records every delivery in the ledger's
// notification log. Status-change notifications are deduplicated against
// that log so repeated scans cannot spam a demoted artist.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atelier/internal/config"
	"atelier/internal/ledger"
)

const userAgent = "Atelier-Go/0.1.0"

// Notification kinds as stored in the ledger delivery log.
const (
	KindDemoted  = "demoted"
	KindRestored = "restored"
	KindReminder = "reminder"
)

// Service defines the notification surface exposed to the compliance and
// reminder components.
type Service interface {
	NotifyDemoted(ctx context.Context, userID int64, owed int) error
	NotifyRestored(ctx context.Context, userID int64) error
	NotifyReminder(ctx context.Context, userID int64, day int, guidance string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by the configured gateway.
// When no gateway URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config, store *ledger.Store) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.GatewayURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &gatewayService{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		store:      store,
		dedup:      time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		demotions:  cfg.Notifications.Demotions,
		restores:   cfg.Notifications.Restorations,
		reminders:  cfg.Notifications.Reminders,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type gatewayService struct {
	endpoint  string
	client    *http.Client
	store     *ledger.Store
	dedup     time.Duration
	demotions bool
	restores  bool
	reminders bool
}

func (g *gatewayService) NotifyDemoted(ctx context.Context, userID int64, owed int) error {
	if !g.demotions {
		return nil
	}
	if g.recentlySent(ctx, userID, KindDemoted) {
		return nil
	}
	data := payload{
		title: "Atelier - Artist Status Paused",
		message: fmt.Sprintf(
			"Your artist status is paused. Share %d seed artworks to restore it. Every upload counts toward your return.",
			owed,
		),
		tags:     []string{"atelier", "compliance", "demoted"},
		priority: "high",
	}
	return g.deliver(ctx, userID, KindDemoted, fmt.Sprintf("owed %d", owed), data)
}

func (g *gatewayService) NotifyRestored(ctx context.Context, userID int64) error {
	if !g.restores {
		return nil
	}
	if g.recentlySent(ctx, userID, KindRestored) {
		return nil
	}
	data := payload{
		title:    "Atelier - Artist Status Restored",
		message:  "Welcome back! Your artist status is active again. Keep sharing your seed art to stay in good standing.",
		tags:     []string{"atelier", "compliance", "restored"},
		priority: "high",
	}
	return g.deliver(ctx, userID, KindRestored, "", data)
}

func (g *gatewayService) NotifyReminder(ctx context.Context, userID int64, day int, guidance string) error {
	if !g.reminders {
		return nil
	}
	data := payload{
		title:   fmt.Sprintf("Atelier - Day %d", day),
		message: strings.TrimSpace(guidance),
		tags:    []string{"atelier", "reminder"},
	}
	return g.deliver(ctx, userID, KindReminder, fmt.Sprintf("day %d", day), data)
}

func (g *gatewayService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Atelier - Test",
		message:  "Notification gateway test",
		tags:     []string{"atelier", "test"},
		priority: "low",
	}
	return g.send(ctx, data)
}

// recentlySent reports whether a notification of the same kind went out to
// the user inside the dedup window.
func (g *gatewayService) recentlySent(ctx context.Context, userID int64, kind string) bool {
	if g.store == nil || g.dedup <= 0 {
		return false
	}
	last, err := g.store.LastNotification(ctx, userID, kind)
	if err != nil {
		return false
	}
	return time.Since(last) < g.dedup
}

func (g *gatewayService) deliver(ctx context.Context, userID int64, kind, detail string, data payload) error {
	if err := g.send(ctx, data); err != nil {
		return err
	}
	if g.store != nil {
		if err := g.store.RecordNotification(ctx, userID, kind, detail, time.Now().UTC()); err != nil {
			return fmt.Errorf("log %s notification: %w", kind, err)
		}
	}
	return nil
}

func (g *gatewayService) send(ctx context.Context, data payload) error {
	if g == nil || g.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDemoted(context.Context, int64, int) error           { return nil }
func (noopService) NotifyRestored(context.Context, int64) error               { return nil }
func (noopService) NotifyReminder(context.Context, int64, int, string) error  { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
