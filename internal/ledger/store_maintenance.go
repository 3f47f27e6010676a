package ledger

import (
	"context"
	"fmt"
)

// Health summarizes the store for the daemon status and health endpoints.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	var summary HealthSummary
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
            COUNT(*),
            COALESCE(SUM(committed), 0),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
         FROM compliance_records`,
		string(StatusActive),
		string(StatusInactive),
	).Scan(&summary.Records, &summary.Committed, &summary.Active, &summary.Inactive)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize records: %w", err)
	}

	pending, err := s.PendingTaskCount(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	summary.PendingTasks = pending
	return summary, nil
}
