package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Artist describes one compliance record in a transport-friendly format.
type Artist struct {
	UserID      int64  `json:"userId"`
	Committed   bool   `json:"committed"`
	Status      string `json:"status"`
	Deficit     int    `json:"deficit"`
	LastEventAt string `json:"lastEventAt,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// ScanError reports one artist a scan pass could not evaluate.
type ScanError struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason"`
}

// ScanReport summarizes a scan pass.
type ScanReport struct {
	ScanID     string      `json:"scanId"`
	StartedAt  string      `json:"startedAt"`
	FinishedAt string      `json:"finishedAt"`
	Scanned    int         `json:"scanned"`
	Demoted    int         `json:"demoted"`
	Updated    int         `json:"updated"`
	Compliant  int         `json:"compliant"`
	Skipped    int         `json:"skipped"`
	Errors     []ScanError `json:"errors,omitempty"`
}

// HealthSummary mirrors the store-level counters.
type HealthSummary struct {
	Records      int `json:"records"`
	Committed    int `json:"committed"`
	Active       int `json:"active"`
	Inactive     int `json:"inactive"`
	PendingTasks int `json:"pendingTasks"`
}

// DaemonStatus describes daemon runtime information.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	DatabasePath string        `json:"databasePath"`
	LockFilePath string        `json:"lockFilePath"`
	Health       HealthSummary `json:"health"`
	LastScan     *ScanReport   `json:"lastScan,omitempty"`
}

// EventRequest submits one qualifying upload event.
type EventRequest struct {
	OccurredAt string `json:"occurredAt,omitempty"`
}

// CommitRequest flips an artist's commitment flag.
type CommitRequest struct {
	Committed bool `json:"committed"`
}

// PlanStep is one day's guidance inside a plan request.
type PlanStep struct {
	Day     int    `json:"day"`
	Payload string `json:"payload"`
}

// PlanRequest submits a reminder plan for scheduling.
type PlanRequest struct {
	PlanID   string     `json:"planId,omitempty"`
	UserID   int64      `json:"userId"`
	Timezone string     `json:"timezone,omitempty"`
	Steps    []PlanStep `json:"steps,omitempty"`
}

// PlanResponse reports the outcome of scheduling a plan.
type PlanResponse struct {
	PlanID    string `json:"planId"`
	UserID    int64  `json:"userId"`
	Timezone  string `json:"timezone"`
	Reminders int    `json:"reminders"`
}
