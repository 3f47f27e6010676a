package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"atelier/internal/notifications"
	"atelier/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newGateway(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()

	var mu sync.Mutex
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func TestNotifyDemotedSendsAndLogs(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	if err := svc.NotifyDemoted(ctx, 42, 4); err != nil {
		t.Fatalf("NotifyDemoted failed: %v", err)
	}

	requests := sent()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].title != "Atelier - Artist Status Paused" {
		t.Fatalf("unexpected title %q", requests[0].title)
	}
	if !strings.Contains(requests[0].body, "4 seed artworks") {
		t.Fatalf("expected owed count in body, got %q", requests[0].body)
	}
	if requests[0].priority != "high" {
		t.Fatalf("expected high priority, got %q", requests[0].priority)
	}

	if _, err := store.LastNotification(ctx, 42, notifications.KindDemoted); err != nil {
		t.Fatalf("expected delivery logged: %v", err)
	}
}

func TestNotifyDemotedDedupsWithinWindow(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	if err := svc.NotifyDemoted(ctx, 42, 4); err != nil {
		t.Fatalf("first NotifyDemoted failed: %v", err)
	}
	if err := svc.NotifyDemoted(ctx, 42, 6); err != nil {
		t.Fatalf("second NotifyDemoted failed: %v", err)
	}

	if got := len(sent()); got != 1 {
		t.Fatalf("expected dedup to suppress second send, got %d requests", got)
	}

	// A different user is unaffected by the first user's dedup window.
	if err := svc.NotifyDemoted(ctx, 43, 2); err != nil {
		t.Fatalf("NotifyDemoted for other user failed: %v", err)
	}
	if got := len(sent()); got != 2 {
		t.Fatalf("expected send for second user, got %d requests", got)
	}
}

func TestNotifyDemotedSendsAgainAfterWindow(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	cfg.Notifications.DedupWindowSeconds = 1
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	// Backdate a prior delivery beyond the one-second window.
	if err := store.RecordNotification(ctx, 42, notifications.KindDemoted, "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}

	if err := svc.NotifyDemoted(ctx, 42, 4); err != nil {
		t.Fatalf("NotifyDemoted failed: %v", err)
	}
	if got := len(sent()); got != 1 {
		t.Fatalf("expected send after window elapsed, got %d requests", got)
	}
}

func TestNotifyReminderCarriesGuidance(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)

	if err := svc.NotifyReminder(context.Background(), 42, 15, "Revisit an old piece."); err != nil {
		t.Fatalf("NotifyReminder failed: %v", err)
	}

	requests := sent()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].title != "Atelier - Day 15" {
		t.Fatalf("unexpected title %q", requests[0].title)
	}
	if requests[0].body != "Revisit an old piece." {
		t.Fatalf("unexpected body %q", requests[0].body)
	}
}

func TestRemindersNotDeduped(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	if err := svc.NotifyReminder(ctx, 42, 1, "one"); err != nil {
		t.Fatalf("NotifyReminder failed: %v", err)
	}
	if err := svc.NotifyReminder(ctx, 42, 2, "two"); err != nil {
		t.Fatalf("NotifyReminder failed: %v", err)
	}
	if got := len(sent()); got != 2 {
		t.Fatalf("expected both reminders delivered, got %d", got)
	}
}

func TestKindTogglesSuppressSends(t *testing.T) {
	server, sent := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	cfg.Notifications.Demotions = false
	cfg.Notifications.Reminders = false
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	if err := svc.NotifyDemoted(ctx, 42, 4); err != nil {
		t.Fatalf("NotifyDemoted failed: %v", err)
	}
	if err := svc.NotifyReminder(ctx, 42, 1, "hi"); err != nil {
		t.Fatalf("NotifyReminder failed: %v", err)
	}
	if err := svc.NotifyRestored(ctx, 42); err != nil {
		t.Fatalf("NotifyRestored failed: %v", err)
	}

	requests := sent()
	if len(requests) != 1 {
		t.Fatalf("expected only the restoration, got %d requests", len(requests))
	}
	if requests[0].title != "Atelier - Artist Status Restored" {
		t.Fatalf("unexpected title %q", requests[0].title)
	}
}

func TestGatewayErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithGatewayURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)
	ctx := context.Background()

	err := svc.NotifyRestored(ctx, 42)
	if err == nil {
		t.Fatal("expected error from failing gateway")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status in error, got %v", err)
	}

	// Failed sends must not be logged as deliveries.
	if _, lookupErr := store.LastNotification(ctx, 42, notifications.KindRestored); lookupErr == nil {
		t.Fatal("failed send should not be recorded")
	}
}

func TestNoopServiceWhenUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := notifications.NewService(cfg, store)

	ctx := context.Background()
	if err := svc.NotifyDemoted(ctx, 1, 1); err != nil {
		t.Fatalf("noop NotifyDemoted failed: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("noop TestNotification failed: %v", err)
	}
}
