package api

import (
	"time"

	"atelier/internal/compliance"
	"atelier/internal/ledger"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromRecord converts a ledger record to its API representation.
func FromRecord(rec *ledger.Record) Artist {
	if rec == nil {
		return Artist{}
	}
	return Artist{
		UserID:      rec.UserID,
		Committed:   rec.Committed,
		Status:      string(rec.Status),
		Deficit:     rec.Deficit,
		LastEventAt: formatTimestamp(rec.LastEventAt),
		CreatedAt:   formatTimestamp(rec.CreatedAt),
		UpdatedAt:   formatTimestamp(rec.UpdatedAt),
	}
}

// FromRecords converts a slice of ledger records.
func FromRecords(records []*ledger.Record) []Artist {
	artists := make([]Artist, 0, len(records))
	for _, rec := range records {
		artists = append(artists, FromRecord(rec))
	}
	return artists
}

// FromScanReport converts a scanner report to its API representation.
func FromScanReport(report *compliance.ScanReport) *ScanReport {
	if report == nil {
		return nil
	}
	out := &ScanReport{
		ScanID:     report.ScanID,
		StartedAt:  formatTimestamp(report.StartedAt),
		FinishedAt: formatTimestamp(report.FinishedAt),
		Scanned:    report.Scanned,
		Demoted:    report.Demoted,
		Updated:    report.Updated,
		Compliant:  report.Compliant,
		Skipped:    report.Skipped,
	}
	for _, scanErr := range report.Errors {
		out.Errors = append(out.Errors, ScanError{UserID: scanErr.UserID, Reason: scanErr.Reason})
	}
	return out
}

// FromHealth converts the store summary to its API representation.
func FromHealth(summary ledger.HealthSummary) HealthSummary {
	return HealthSummary{
		Records:      summary.Records,
		Committed:    summary.Committed,
		Active:       summary.Active,
		Inactive:     summary.Inactive,
		PendingTasks: summary.PendingTasks,
	}
}

// ToPlan converts a plan request to the storage model.
func ToPlan(req PlanRequest) *ledger.Plan {
	plan := &ledger.Plan{
		ID:       req.PlanID,
		UserID:   req.UserID,
		Timezone: req.Timezone,
	}
	for _, step := range req.Steps {
		plan.Steps = append(plan.Steps, ledger.PlanStep{Day: step.Day, Payload: step.Payload})
	}
	return plan
}
