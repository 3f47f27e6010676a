package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"atelier/internal/compliance"
	"atelier/internal/config"
	"atelier/internal/engine"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
	"atelier/internal/notifications"
	"atelier/internal/reminder"
	"atelier/internal/roles"
)

// Daemon coordinates the background engine and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *ledger.Store
	engine    *engine.Manager
	processor *compliance.Processor
	scheduler *reminder.Scheduler
	notifier  notifications.Service
	roles     roles.Client

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Health       ledger.HealthSummary
	LastScan     *compliance.ScanReport
}

// New constructs a daemon with fully wired dependencies.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, m *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	notifier := notifications.NewService(cfg, store)
	roleClient := roles.NewClient(cfg)
	scanner := compliance.NewScanner(cfg, store, notifier, roleClient, logger, m)
	executor := reminder.NewExecutor(store, notifier, logger, m)

	lockPath := filepath.Join(cfg.Paths.LogDir, "atelierd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		engine:    engine.NewManager(cfg, store, scanner, executor, logger, m),
		processor: compliance.NewProcessor(cfg, store, notifier, roleClient, logger, m),
		scheduler: reminder.NewScheduler(cfg, store, logger),
		notifier:  notifier,
		roles:     roleClient,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock and launches the engine and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another atelier daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.engine.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start engine: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.engine.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("atelier daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.engine.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("atelier daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, empty until Start succeeds.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status summarizes daemon state for the API and CLI.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LastScan:     d.engine.LastScan(),
	}
	if health, err := d.store.Health(ctx); err == nil {
		status.Health = health
	} else {
		d.logger.Warn("health summary failed", logging.Error(err))
	}
	return status
}

// ListArtists returns every compliance record.
func (d *Daemon) ListArtists(ctx context.Context) ([]*ledger.Record, error) {
	return d.store.ListRecords(ctx)
}

// GetArtist returns one compliance record.
func (d *Daemon) GetArtist(ctx context.Context, userID int64) (*ledger.Record, error) {
	return d.store.GetRecord(ctx, userID)
}

// SubmitEvent applies a qualifying upload event through the processor.
func (d *Daemon) SubmitEvent(ctx context.Context, userID int64, occurredAt time.Time) (*ledger.Record, error) {
	return d.processor.RecordQualifyingEvent(ctx, userID, occurredAt)
}

// SetCommitment opts an artist in or out of the upload commitment. Opting
// in a user with no record creates one in good standing; its clock is
// seeded one grace period back, the same signup credit the scanner grants
// records that have never uploaded.
func (d *Daemon) SetCommitment(ctx context.Context, userID int64, committed bool) (*ledger.Record, error) {
	rec, err := d.store.SetCommitment(ctx, userID, committed)
	if errors.Is(err, ledger.ErrNotFound) && committed {
		rec = &ledger.Record{
			UserID:      userID,
			Committed:   true,
			Status:      ledger.StatusActive,
			LastEventAt: time.Now().UTC().Add(-d.cfg.Compliance.GracePeriod()),
		}
		if createErr := d.store.CreateRecord(ctx, rec); createErr != nil {
			return nil, createErr
		}
		return rec, nil
	}
	return rec, err
}

// ResetCompliance administratively restores an artist to a clean slate:
// active status, zero deficit, the clock restarted, and the artist role
// reassigned.
func (d *Daemon) ResetCompliance(ctx context.Context, userID int64) (*ledger.Record, error) {
	rec, err := d.store.WithRecord(ctx, userID, func(rec *ledger.Record) error {
		rec.Status = ledger.StatusActive
		rec.Deficit = 0
		rec.LastEventAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if roleErr := d.roles.SetRole(ctx, userID, d.cfg.Roles.ArtistRole); roleErr != nil {
		d.logger.Error("reset role assignment failed",
			logging.Int64(logging.FieldUserID, userID), logging.Error(roleErr))
	}
	if noticeErr := d.notifier.NotifyRestored(ctx, userID); noticeErr != nil {
		d.logger.Error("reset notification failed",
			logging.Int64(logging.FieldUserID, userID), logging.Error(noticeErr))
	}
	d.logger.Info("compliance reset", logging.Int64(logging.FieldUserID, userID))
	return rec, nil
}

// SchedulePlan stores a reminder plan and fans out its daily tasks.
func (d *Daemon) SchedulePlan(ctx context.Context, plan *ledger.Plan) (int, error) {
	return d.scheduler.SchedulePlan(ctx, plan, time.Now())
}

// RunScan triggers one scan pass immediately.
func (d *Daemon) RunScan(ctx context.Context) (*compliance.ScanReport, error) {
	return d.engine.TriggerScan(ctx)
}

// TestNotification sends a test message through the configured gateway.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}
