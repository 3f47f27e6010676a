package reminder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"atelier/internal/ledger"
	"atelier/internal/reminder"
	"atelier/internal/testsupport"
)

type sentReminder struct {
	userID   int64
	day      int
	guidance string
}

type reminderRecorder struct {
	mu   sync.Mutex
	sent []sentReminder
	fail error
}

func (r *reminderRecorder) NotifyDemoted(context.Context, int64, int) error { return nil }
func (r *reminderRecorder) NotifyRestored(context.Context, int64) error     { return nil }
func (r *reminderRecorder) TestNotification(context.Context) error          { return nil }

func (r *reminderRecorder) NotifyReminder(_ context.Context, userID int64, day int, guidance string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, sentReminder{userID: userID, day: day, guidance: guidance})
	return nil
}

func (r *reminderRecorder) deliveries() []sentReminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentReminder(nil), r.sent...)
}

func TestExecuteDeliversPlanStep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	recorder := &reminderRecorder{}
	executor := reminder.NewExecutor(store, recorder, nil, nil)
	ctx := context.Background()

	plan := &ledger.Plan{
		ID:       "plan-1",
		UserID:   42,
		Timezone: "UTC",
		Steps:    []ledger.PlanStep{{Day: 5, Payload: "Revisit an old piece."}},
	}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	task := &ledger.Task{Kind: ledger.TaskReminder, UserID: 42, PlanID: "plan-1", Day: 5, RunAt: time.Now()}
	if err := executor.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	sent := recorder.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sent))
	}
	if sent[0].day != 5 || sent[0].guidance != "Revisit an old piece." {
		t.Fatalf("unexpected delivery: %+v", sent[0])
	}
}

func TestExecuteFallsBackToDefaultGuidance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	recorder := &reminderRecorder{}
	executor := reminder.NewExecutor(store, recorder, nil, nil)
	ctx := context.Background()

	plan := &ledger.Plan{ID: "plan-sparse", UserID: 42, Timezone: "UTC"}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	task := &ledger.Task{Kind: ledger.TaskReminder, UserID: 42, PlanID: "plan-sparse", Day: 12, RunAt: time.Now()}
	if err := executor.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	sent := recorder.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sent))
	}
	if sent[0].guidance != "Focus on your artistic growth and trust your creative instincts." {
		t.Fatalf("unexpected fallback guidance %q", sent[0].guidance)
	}
}

func TestExecuteMissingPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	executor := reminder.NewExecutor(store, &reminderRecorder{}, nil, nil)

	task := &ledger.Task{Kind: ledger.TaskReminder, UserID: 1, PlanID: "gone", Day: 1, RunAt: time.Now()}
	err := executor.Execute(context.Background(), task)
	if !errors.Is(err, reminder.ErrPlanMissing) {
		t.Fatalf("expected ErrPlanMissing, got %v", err)
	}
}

func TestExecuteSurfacesDeliveryFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	recorder := &reminderRecorder{fail: errors.New("gateway down")}
	executor := reminder.NewExecutor(store, recorder, nil, nil)
	ctx := context.Background()

	plan := &ledger.Plan{ID: "plan-f", UserID: 1, Timezone: "UTC"}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	task := &ledger.Task{Kind: ledger.TaskReminder, UserID: 1, PlanID: "plan-f", Day: 1, RunAt: time.Now()}
	if err := executor.Execute(ctx, task); err == nil {
		t.Fatal("expected delivery failure to surface")
	}
}
