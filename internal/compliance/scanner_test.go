package compliance_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"atelier/internal/compliance"
	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/testsupport"
)

func newScanner(t *testing.T, opts ...testsupport.ConfigOption) (*compliance.Scanner, *ledger.Store, *fakeNotifier, *fakeRoles, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &fakeNotifier{}
	roleClient := &fakeRoles{}
	scanner := compliance.NewScanner(cfg, store, notifier, roleClient, nil, nil)
	return scanner, store, notifier, roleClient, cfg
}

func TestScanDemotesLapsedArtist(t *testing.T) {
	scanner, store, notifier, roleClient, _ := newScanner(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	// Ten days quiet under a seven-day grace and seven-day cycle at two
	// uploads per cycle: two cycles owed, four uploads due.
	testsupport.NewRecord(t, store, 42, ledger.StatusActive, now.Add(-10*24*time.Hour))

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Scanned != 1 || report.Demoted != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rec, err := store.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec.Status != ledger.StatusInactive {
		t.Fatalf("expected inactive, got %s", rec.Status)
	}
	if rec.Deficit != 4 {
		t.Fatalf("expected deficit 4, got %d", rec.Deficit)
	}

	demotions := notifier.demotions()
	if len(demotions) != 1 || demotions[0].userID != 42 || demotions[0].owed != 4 {
		t.Fatalf("unexpected demotion notices: %v", demotions)
	}
	assignments := roleClient.assignments()
	if len(assignments) != 1 || assignments[0].role != "member" {
		t.Fatalf("expected member role assignment, got %v", assignments)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	scanner, store, notifier, _, _ := newScanner(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	testsupport.NewRecord(t, store, 42, ledger.StatusActive, now.Add(-10*24*time.Hour))

	if _, err := scanner.Run(ctx, now); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if report.Demoted != 0 || report.Updated != 1 {
		t.Fatalf("second pass should only refresh the deficit: %+v", report)
	}

	rec, err := store.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec.Deficit != 4 {
		t.Fatalf("deficit should be overwritten, not accumulated: got %d", rec.Deficit)
	}
	if got := len(notifier.demotions()); got != 1 {
		t.Fatalf("expected a single demotion notice across passes, got %d", got)
	}
}

func TestScanOverwritesGrownDeficit(t *testing.T) {
	scanner, store, _, _, _ := newScanner(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testsupport.NewRecord(t, store, 42, ledger.StatusActive, base)

	// First pass at ten days: deficit 4. A week later the same record owes
	// more, and the recompute replaces the old figure outright.
	if _, err := scanner.Run(ctx, base.Add(10*24*time.Hour)); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := scanner.Run(ctx, base.Add(17*24*time.Hour)); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	rec, err := store.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec.Deficit != 6 {
		t.Fatalf("expected deficit 6 after 17 days, got %d", rec.Deficit)
	}
}

func TestScanLeavesArtistWithinGraceAlone(t *testing.T) {
	scanner, store, notifier, _, _ := newScanner(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	// Exactly at the boundary: still within grace.
	testsupport.NewRecord(t, store, 42, ledger.StatusActive, now.Add(-7*24*time.Hour))

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Compliant != 1 || report.Demoted != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := len(notifier.demotions()); got != 0 {
		t.Fatalf("expected no notices, got %d", got)
	}
}

func TestScanSeedsMissingLastEvent(t *testing.T) {
	scanner, store, notifier, _, _ := newScanner(t)
	ctx := context.Background()

	testsupport.NewRecord(t, store, 42, ledger.StatusActive, time.Time{})

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Demoted != 0 {
		t.Fatalf("first sighting should not demote: %+v", report)
	}
	if got := len(notifier.demotions()); got != 0 {
		t.Fatalf("expected no notices, got %d", got)
	}

	rec, err := store.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	want := now.Add(-7 * 24 * time.Hour)
	if !rec.LastEventAt.Equal(want) {
		t.Fatalf("expected seeded last event %v, got %v", want, rec.LastEventAt)
	}

	// One second later the grace window has lapsed and the demotion lands.
	report, err = scanner.Run(ctx, now.Add(time.Second))
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if report.Demoted != 1 {
		t.Fatalf("expected demotion after seeded grace lapsed: %+v", report)
	}
}

func TestScanSkipsOptedOutArtists(t *testing.T) {
	scanner, store, notifier, _, _ := newScanner(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	testsupport.NewRecord(t, store, 1, ledger.StatusActive, now.Add(-30*24*time.Hour))
	if _, err := store.SetCommitment(ctx, 1, false); err != nil {
		t.Fatalf("SetCommitment failed: %v", err)
	}

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Scanned != 0 {
		t.Fatalf("opted-out artist should not be scanned: %+v", report)
	}
	if got := len(notifier.demotions()); got != 0 {
		t.Fatalf("expected no notices, got %d", got)
	}
}

func TestScanSurvivesNotifierFailure(t *testing.T) {
	scanner, store, notifier, _, _ := newScanner(t)
	ctx := context.Background()

	notifier.fail = errors.New("gateway down")
	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	testsupport.NewRecord(t, store, 42, ledger.StatusActive, now.Add(-10*24*time.Hour))

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Demoted != 1 {
		t.Fatalf("notification failure must not fail the evaluation: %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].UserID != 42 {
		t.Fatalf("notice failure should surface in the report: %+v", report.Errors)
	}
	if !strings.Contains(report.Errors[0].Reason, "gateway down") {
		t.Fatalf("report should carry the delivery error, got %q", report.Errors[0].Reason)
	}

	rec, err := store.GetRecord(ctx, 42)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec.Status != ledger.StatusInactive || rec.Deficit != 4 {
		t.Fatalf("state change should stand despite notice failure: %+v", rec)
	}
}

func TestScanReportsNoticeFailurePerDemotedArtist(t *testing.T) {
	scanner, store, notifier, roleClient, _ := newScanner(t)
	ctx := context.Background()

	notifier.fail = errors.New("gateway down")
	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	testsupport.NewRecord(t, store, 1, ledger.StatusActive, now.Add(-10*24*time.Hour))
	testsupport.NewRecord(t, store, 2, ledger.StatusActive, now.Add(-time.Hour))
	testsupport.NewRecord(t, store, 3, ledger.StatusActive, now.Add(-10*24*time.Hour))

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Demoted != 2 || report.Compliant != 1 {
		t.Fatalf("expected 2 demotions and 1 compliant, got %+v", report)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("each failed notice should be reported, got %+v", report.Errors)
	}
	for _, scanErr := range report.Errors {
		if scanErr.UserID == 2 {
			t.Fatalf("compliant artist must not carry an error: %+v", report.Errors)
		}
	}
	if len(roleClient.assignments()) != 2 {
		t.Fatalf("both demotions should still reassign roles, got %v", roleClient.assignments())
	}
}

func TestScanStopsDispatchingOnCancel(t *testing.T) {
	scanner, store, _, _, _ := newScanner(t)

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	for id := int64(1); id <= 20; id++ {
		testsupport.NewRecord(t, store, id, ledger.StatusActive, now.Add(-time.Hour))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Scanned+report.Skipped != 20 {
		t.Fatalf("every artist must be scanned or skipped: %+v", report)
	}
	if report.Skipped == 0 {
		t.Fatalf("cancelled scan should skip the remainder: %+v", report)
	}
}

func TestScanManyArtistsMixedOutcomes(t *testing.T) {
	scanner, store, _, _, _ := newScanner(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	for id := int64(1); id <= 10; id++ {
		last := now.Add(-time.Hour)
		if id%2 == 0 {
			last = now.Add(-10 * 24 * time.Hour)
		}
		testsupport.NewRecord(t, store, id, ledger.StatusActive, last)
	}

	report, err := scanner.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Scanned != 10 || report.Demoted != 5 || report.Compliant != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.ScanID == "" {
		t.Fatal("expected a scan ID")
	}
	if report.Duration() < 0 {
		t.Fatal("expected non-negative duration")
	}
}
