package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/logging"
)

// ErrPlanAlreadyScheduled is returned when a plan ID was scheduled before.
// Plans are immutable; resubmitting one is always a caller mistake.
var ErrPlanAlreadyScheduled = errors.New("reminder: plan already scheduled")

// Scheduler fans a reminder plan out into deferred tasks.
type Scheduler struct {
	store  *ledger.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewScheduler wires a reminder scheduler.
func NewScheduler(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "scheduler"),
	}
}

// SchedulePlan stores the plan and registers one task per day, each firing
// at the configured send hour in the artist's time zone. A new plan for a
// user supersedes any earlier one: that plan's undelivered reminders are
// cancelled before the new tasks are registered. The number of registered
// tasks is returned.
func (s *Scheduler) SchedulePlan(ctx context.Context, plan *ledger.Plan, now time.Time) (int, error) {
	if plan.UserID <= 0 {
		return 0, fmt.Errorf("user ID is required")
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if now.IsZero() {
		now = time.Now()
	}
	ctx = logging.WithUserID(logging.WithPlanID(ctx, plan.ID), plan.UserID)
	log := logging.WithContext(ctx, s.logger)

	loc := s.resolveLocation(plan.Timezone, log)
	plan.Timezone = loc.String()

	if err := s.store.CreatePlan(ctx, plan); err != nil {
		if errors.Is(err, ledger.ErrAlreadyExists) {
			return 0, ErrPlanAlreadyScheduled
		}
		return 0, fmt.Errorf("store plan: %w", err)
	}

	cancelled, err := s.store.CancelPendingTasks(ctx, ledger.TaskReminder, plan.UserID)
	if err != nil {
		return 0, fmt.Errorf("cancel superseded reminders: %w", err)
	}
	if cancelled > 0 {
		log.Info("superseded prior plan", logging.Int64("cancelled", cancelled))
	}

	// A plan may carry steps past the configured length; every entry still
	// gets a task.
	days := s.cfg.Reminders.PlanDays
	for _, step := range plan.Steps {
		if step.Day > days {
			days = step.Day
		}
	}
	registered := 0
	for day := 1; day <= days; day++ {
		task := &ledger.Task{
			Kind:   ledger.TaskReminder,
			UserID: plan.UserID,
			PlanID: plan.ID,
			Day:    day,
			RunAt:  sendTime(now, day, s.cfg.Reminders.SendHour, loc),
		}
		if err := s.store.RegisterTask(ctx, task); err != nil {
			return registered, fmt.Errorf("register reminder for day %d: %w", day, err)
		}
		registered++
	}

	log.Info("plan scheduled",
		logging.String("timezone", plan.Timezone),
		logging.Int("reminders", registered))
	return registered, nil
}

// resolveLocation loads the plan's time zone, falling back to the configured
// default and finally UTC. Bad zones are logged, never fatal.
func (s *Scheduler) resolveLocation(name string, log *slog.Logger) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.cfg.Reminders.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("unknown time zone, using UTC", logging.String("timezone", name), logging.Error(err))
		return time.UTC
	}
	return loc
}

// sendTime computes day N's delivery instant: the send hour on the Nth
// calendar day after the scheduling moment, on the artist's wall clock,
// expressed in UTC for storage.
func sendTime(base time.Time, day, hour int, loc *time.Location) time.Time {
	local := base.In(loc).AddDate(0, 0, day)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc).UTC()
}
