package testsupport

import (
	"context"
	"testing"
	"time"

	"atelier/internal/config"
	"atelier/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord creates a committed compliance record for tests.
func NewRecord(t testing.TB, store *ledger.Store, userID int64, status ledger.Status, lastEvent time.Time) *ledger.Record {
	t.Helper()

	rec := &ledger.Record{
		UserID:      userID,
		Committed:   true,
		Status:      status,
		LastEventAt: lastEvent,
	}
	if err := store.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("store.CreateRecord: %v", err)
	}
	return rec
}
