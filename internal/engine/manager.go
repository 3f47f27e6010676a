// Package engine runs the daemon's two background loops: the periodic
// compliance scan and the deferred-task runner that delivers due reminders.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"atelier/internal/compliance"
	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
	"atelier/internal/reminder"
)

// dueTaskBatch caps how many tasks one poll iteration picks up.
const dueTaskBatch = 50

// Manager coordinates the scan loop and the task runner.
type Manager struct {
	cfg      *config.Config
	store    *ledger.Store
	scanner  *compliance.Scanner
	executor *reminder.Executor
	logger   *slog.Logger
	metrics  *metrics.Metrics

	scanInterval time.Duration
	pollInterval time.Duration
	retryDelay   time.Duration
	maxAttempts  int

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastScan *compliance.ScanReport
}

// NewManager constructs the engine manager. The metrics handle may be nil.
func NewManager(cfg *config.Config, store *ledger.Store, scanner *compliance.Scanner, executor *reminder.Executor, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		scanner:      scanner,
		executor:     executor,
		logger:       logging.NewComponentLogger(logger, "engine"),
		metrics:      m,
		scanInterval: time.Duration(cfg.Compliance.ScanInterval) * time.Second,
		pollInterval: time.Duration(cfg.Reminders.PollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Reminders.RetryDelay) * time.Second,
		maxAttempts:  cfg.Reminders.MaxAttempts,
	}
}

// Start launches the background loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(2)
	m.mu.Unlock()

	go m.scanLoop(runCtx)
	go m.taskLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the background loops are active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastScan returns the most recent scan report, if any pass has finished.
func (m *Manager) LastScan() *compliance.ScanReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastScan
}

// TriggerScan runs one scan pass immediately, outside the timer cadence.
func (m *Manager) TriggerScan(ctx context.Context) (*compliance.ScanReport, error) {
	scanCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.Compliance.ScanTimeout)*time.Second)
	defer cancel()

	report, err := m.scanner.Run(scanCtx, time.Now())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.lastScan = report
	m.mu.Unlock()
	m.refreshRosterGauges(ctx)
	return report, nil
}

func (m *Manager) refreshRosterGauges(ctx context.Context) {
	health, err := m.store.Health(context.WithoutCancel(ctx))
	if err != nil {
		m.logger.Warn("roster gauge refresh failed", logging.Error(err))
		return
	}
	m.metrics.SetRosterCounts(health.Active, health.Inactive, health.Committed)
}

func (m *Manager) scanLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.TriggerScan(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("scheduled scan failed", logging.Error(err))
			}
		}
	}
}

func (m *Manager) taskLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		m.RunDueTasks(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pollInterval):
		}
	}
}

// RunDueTasks processes every currently due task batch by batch. The task
// loop calls it on each poll; it is safe to call directly as well.
func (m *Manager) RunDueTasks(ctx context.Context) {
	for ctx.Err() == nil {
		tasks, err := m.store.DueTasks(ctx, time.Now(), dueTaskBatch)
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Error("poll due tasks failed", logging.Error(err))
			}
			return
		}
		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			if ctx.Err() != nil {
				return
			}
			m.runTask(ctx, task)
		}
		if len(tasks) < dueTaskBatch {
			return
		}
	}
}

// runTask executes one due task and settles its row: completed on success,
// deferred for retry on failure, abandoned once attempts run out or the
// task can never succeed.
func (m *Manager) runTask(ctx context.Context, task *ledger.Task) {
	log := m.logger.With(
		logging.Int64(logging.FieldUserID, task.UserID),
		logging.String(logging.FieldPlanID, task.PlanID),
		logging.Int(logging.FieldDay, task.Day))

	var err error
	switch task.Kind {
	case ledger.TaskReminder:
		err = m.executor.Execute(ctx, task)
	default:
		err = errors.New("unknown task kind " + string(task.Kind))
	}

	switch {
	case err == nil:
		if markErr := m.store.CompleteTask(ctx, task.ID, time.Now()); markErr != nil {
			log.Error("complete task failed", logging.Error(markErr))
		}
	case errors.Is(err, reminder.ErrPlanMissing), task.Attempts+1 >= m.maxAttempts:
		log.Error("task abandoned",
			logging.Int("attempts", task.Attempts+1),
			logging.Error(err))
		if markErr := m.store.AbandonTask(ctx, task.ID, err.Error()); markErr != nil {
			log.Error("abandon task failed", logging.Error(markErr))
		}
	default:
		log.Warn("task deferred for retry",
			logging.Int("attempts", task.Attempts+1),
			logging.Error(err))
		if markErr := m.store.DeferTask(ctx, task.ID, time.Now().Add(m.retryDelay), err.Error()); markErr != nil {
			log.Error("defer task failed", logging.Error(markErr))
		}
	}
}
