package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
	"atelier/internal/notifications"
)

// defaultGuidance is sent on days the plan has no step for.
const defaultGuidance = "Focus on your artistic growth and trust your creative instincts."

// ErrPlanMissing is returned when a task references a plan that no longer
// exists. The task runner abandons such tasks instead of retrying.
var ErrPlanMissing = errors.New("reminder: plan missing")

// Executor delivers a due reminder task.
type Executor struct {
	store    *ledger.Store
	notifier notifications.Service
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewExecutor wires a reminder executor. The metrics handle may be nil.
func NewExecutor(store *ledger.Store, notifier notifications.Service, logger *slog.Logger, m *metrics.Metrics) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "executor"),
		metrics:  m,
	}
}

// Execute sends the reminder a due task describes: the plan's step for that
// day, or the default guidance when the plan has none.
func (e *Executor) Execute(ctx context.Context, task *ledger.Task) error {
	ctx = logging.WithUserID(logging.WithPlanID(ctx, task.PlanID), task.UserID)
	log := logging.WithContext(ctx, e.logger)

	plan, err := e.store.GetPlan(ctx, task.PlanID)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrPlanMissing, task.PlanID)
	}
	if err != nil {
		return fmt.Errorf("load plan for reminder: %w", err)
	}

	guidance, ok := plan.Step(task.Day)
	if !ok || guidance == "" {
		guidance = defaultGuidance
	}

	if err := e.notifier.NotifyReminder(ctx, task.UserID, task.Day, guidance); err != nil {
		e.metrics.IncNotificationFailures()
		return fmt.Errorf("deliver day %d reminder: %w", task.Day, err)
	}

	e.metrics.IncRemindersSent()
	log.Info("reminder delivered", logging.Int(logging.FieldDay, task.Day))
	return nil
}
