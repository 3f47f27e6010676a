package compliance

import "time"

// ScanError records a single artist the scan could not evaluate.
type ScanError struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

// ScanReport summarizes one scan pass over the committed roster.
type ScanReport struct {
	ScanID     string      `json:"scan_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Scanned    int         `json:"scanned"`
	Demoted    int         `json:"demoted"`
	Updated    int         `json:"updated"`
	Compliant  int         `json:"compliant"`
	Skipped    int         `json:"skipped"`
	Errors     []ScanError `json:"errors,omitempty"`
}

// Duration returns the wall time the scan took.
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
