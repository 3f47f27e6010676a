package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
	"atelier/internal/notifications"
	"atelier/internal/roles"
)

// perUserTimeout bounds a single artist evaluation once it is in flight.
const perUserTimeout = time.Minute

// Scanner sweeps committed artists and reconciles each record against the
// obligation policy.
type Scanner struct {
	store    *ledger.Store
	notifier notifications.Service
	roles    roles.Client
	policy   Policy
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewScanner wires a compliance scanner. The metrics handle may be nil.
func NewScanner(cfg *config.Config, store *ledger.Store, notifier notifications.Service, roleClient roles.Client, logger *slog.Logger, m *metrics.Metrics) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		store:    store,
		notifier: notifier,
		roles:    roleClient,
		policy:   PolicyFromConfig(cfg),
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "scanner"),
		metrics:  m,
	}
}

// Policy returns the obligation parameters the scanner evaluates against.
func (s *Scanner) Policy() Policy {
	return s.policy
}

// Run sweeps every committed artist once. The pass is idempotent: each
// record's deficit is recomputed from its last qualifying event, so running
// twice in a row changes nothing the second time. When ctx expires the
// scanner stops dispatching new artists and counts the remainder as
// skipped; evaluations already in flight finish under their own timeout.
//
// Per-artist failures are collected into the report rather than aborting
// the pass, and so are role or notification failures riding on a demotion;
// those never undo the committed state change.
func (s *Scanner) Run(ctx context.Context, now time.Time) (*ScanReport, error) {
	if err := s.policy.Validate(); err != nil {
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	now = now.UTC()

	report := &ScanReport{
		ScanID:    uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	ctx = logging.WithScanID(ctx, report.ScanID)
	log := logging.WithContext(ctx, s.logger)

	// The roster listing is local and cheap; a deadline governs dispatch,
	// not the snapshot.
	records, err := s.store.ListCommitted(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("list committed artists: %w", err)
	}
	log.Info("scan started", logging.Int("population", len(records)))

	workers := s.cfg.Compliance.ScanWorkers
	if workers <= 0 {
		workers = 1
	}

	userIDs := make(chan int64)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range userIDs {
				outcome, sideErrs, err := s.evaluate(ctx, userID, now)
				mu.Lock()
				report.Scanned++
				switch {
				case err != nil:
					report.Errors = append(report.Errors, ScanError{UserID: userID, Reason: err.Error()})
				case outcome == outcomeDemoted:
					report.Demoted++
				case outcome == outcomeUpdated:
					report.Updated++
				default:
					report.Compliant++
				}
				report.Errors = append(report.Errors, sideErrs...)
				mu.Unlock()
			}
		}()
	}

	skipped := 0
dispatch:
	for i, rec := range records {
		if ctx.Err() != nil {
			skipped = len(records) - i
			break dispatch
		}
		select {
		case userIDs <- rec.UserID:
		case <-ctx.Done():
			skipped = len(records) - i
			break dispatch
		}
	}
	close(userIDs)
	wg.Wait()

	report.Skipped = skipped
	report.FinishedAt = time.Now().UTC()
	s.metrics.ObserveScan(report.StartedAt)
	s.metrics.IncDemotions(report.Demoted)

	log.Info("scan finished",
		logging.Int("scanned", report.Scanned),
		logging.Int("demotions", report.Demoted),
		logging.Int("updated", report.Updated),
		logging.Int("compliant", report.Compliant),
		logging.Int("skipped", report.Skipped),
		logging.Int("errors", len(report.Errors)),
		logging.Duration("duration", report.Duration()))
	return report, nil
}

type outcome int

const (
	outcomeCompliant outcome = iota
	outcomeUpdated
	outcomeDemoted
)

// evaluate reconciles one artist. It runs detached from the scan context so
// a deadline arriving mid-write cannot leave a half-applied record. The
// returned scan errors carry secondary-effect failures whose state change
// still stands; the error return means the record itself was not evaluated.
func (s *Scanner) evaluate(ctx context.Context, userID int64, now time.Time) (outcome, []ScanError, error) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), perUserTimeout)
	defer cancel()
	opCtx = logging.WithUserID(opCtx, userID)
	log := logging.WithContext(opCtx, s.logger)

	result := outcomeCompliant
	demoted := false
	owed := 0
	rec, err := s.store.WithRecord(opCtx, userID, func(rec *ledger.Record) error {
		// Reset per retry; the callback may run more than once.
		result = outcomeCompliant
		demoted = false

		if !rec.Committed {
			return nil
		}
		if rec.LastEventAt.IsZero() {
			// Never uploaded: start the clock so the next lapse demotes.
			rec.LastEventAt = now.Add(-s.policy.GracePeriod)
			return nil
		}

		elapsed := now.Sub(rec.LastEventAt)
		if s.policy.WithinGrace(elapsed) {
			return nil
		}

		owed = s.policy.OwedAfter(elapsed)
		rec.Deficit = owed
		if rec.Status == ledger.StatusActive {
			rec.Status = ledger.StatusInactive
			demoted = true
			result = outcomeDemoted
		} else {
			result = outcomeUpdated
		}
		return nil
	})
	if err != nil {
		return outcomeCompliant, nil, err
	}

	if demoted {
		log.Info("artist demoted",
			logging.Int(logging.FieldDeficit, rec.Deficit),
			logging.Time("last_event_at", rec.LastEventAt))
		return result, s.demote(opCtx, userID, owed, log), nil
	}
	return result, nil, nil
}

// demote pushes the side effects of a demotion. Failures are logged,
// counted, and reported to the caller, but the state change stands.
func (s *Scanner) demote(ctx context.Context, userID int64, owed int, log *slog.Logger) []ScanError {
	var failures []ScanError
	if err := s.roles.SetRole(ctx, userID, s.cfg.Roles.MemberRole); err != nil {
		s.metrics.IncRoleCallFailures()
		log.Error("demotion role assignment failed", logging.Error(err))
		failures = append(failures, ScanError{UserID: userID, Reason: "role assignment: " + err.Error()})
	}
	if err := s.notifier.NotifyDemoted(ctx, userID, owed); err != nil {
		s.metrics.IncNotificationFailures()
		log.Error("demotion notice failed", logging.Error(err))
		failures = append(failures, ScanError{UserID: userID, Reason: "demotion notice: " + err.Error()})
	}
	return failures
}
