package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
	"atelier/internal/notifications"
	"atelier/internal/roles"
)

// Processor consumes qualifying upload events and works records back toward
// good standing.
type Processor struct {
	store    *ledger.Store
	notifier notifications.Service
	roles    roles.Client
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewProcessor wires an event processor. The metrics handle may be nil.
func NewProcessor(cfg *config.Config, store *ledger.Store, notifier notifications.Service, roleClient roles.Client, logger *slog.Logger, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		store:    store,
		notifier: notifier,
		roles:    roleClient,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "processor"),
		metrics:  m,
	}
}

// RecordQualifyingEvent applies one qualifying upload for the user. Each
// event reduces the deficit by exactly one; when an inactive artist's
// deficit reaches zero their status and directory role are restored and a
// single restoration notice goes out. An event for an unknown user creates
// a fresh committed record in good standing; events for opted-out records
// leave them untouched.
func (p *Processor) RecordQualifyingEvent(ctx context.Context, userID int64, occurredAt time.Time) (*ledger.Record, error) {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()
	ctx = logging.WithUserID(ctx, userID)
	log := logging.WithContext(ctx, p.logger)

	restored := false
	rec, err := p.store.WithRecord(ctx, userID, func(rec *ledger.Record) error {
		if !rec.Committed {
			return nil
		}
		if occurredAt.After(rec.LastEventAt) {
			rec.LastEventAt = occurredAt
		}
		if rec.Deficit > 0 {
			rec.Deficit--
		}
		if rec.Status == ledger.StatusInactive && rec.Deficit == 0 {
			rec.Status = ledger.StatusActive
			restored = true
		}
		return nil
	})
	if errors.Is(err, ledger.ErrNotFound) {
		rec, err = p.createRecord(ctx, userID, occurredAt)
		if err != nil {
			return nil, err
		}
		log.Info("created record for first qualifying event",
			logging.Time("occurred_at", occurredAt))
	} else if err != nil {
		return nil, fmt.Errorf("apply qualifying event for user %d: %w", userID, err)
	}

	p.metrics.IncEvents()
	log.Info("qualifying event applied",
		logging.String(logging.FieldStatus, string(rec.Status)),
		logging.Int(logging.FieldDeficit, rec.Deficit),
		logging.Bool("restored", restored))

	if restored {
		p.metrics.IncRestorations()
		p.restore(ctx, userID, log)
	}
	return rec, nil
}

// createRecord registers a user seen for the first time. A create racing
// another event for the same user falls back to the existing record.
func (p *Processor) createRecord(ctx context.Context, userID int64, occurredAt time.Time) (*ledger.Record, error) {
	rec := &ledger.Record{
		UserID:      userID,
		Committed:   true,
		Status:      ledger.StatusActive,
		Deficit:     0,
		LastEventAt: occurredAt,
	}
	err := p.store.CreateRecord(ctx, rec)
	if errors.Is(err, ledger.ErrAlreadyExists) {
		return p.store.WithRecord(ctx, userID, func(existing *ledger.Record) error {
			if occurredAt.After(existing.LastEventAt) {
				existing.LastEventAt = occurredAt
			}
			if existing.Deficit > 0 {
				existing.Deficit--
			}
			return nil
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create record for user %d: %w", userID, err)
	}
	return rec, nil
}

// restore pushes the side effects of a restoration. Failures are logged and
// counted but never unwind the committed state change.
func (p *Processor) restore(ctx context.Context, userID int64, log *slog.Logger) {
	if err := p.roles.SetRole(ctx, userID, p.cfg.Roles.ArtistRole); err != nil {
		p.metrics.IncRoleCallFailures()
		log.Error("restore role assignment failed", logging.Error(err))
	}
	if err := p.notifier.NotifyRestored(ctx, userID); err != nil {
		p.metrics.IncNotificationFailures()
		log.Error("restoration notice failed", logging.Error(err))
	}
}
