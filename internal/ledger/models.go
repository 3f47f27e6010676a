package ledger

import "time"

// Status is the compliance state of an artist record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid reports whether s is one of the two recognized statuses.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Record is the durable compliance state for one artist.
//
// Deficit counts qualifying events owed; it never goes below zero. A zero
// LastEventAt means no qualifying event has been observed yet, in which case
// the scanner seeds it before evaluating the grace window.
type Record struct {
	UserID      int64
	Committed   bool
	Status      Status
	Deficit     int
	LastEventAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlanStep is one day's guidance inside a reminder plan.
type PlanStep struct {
	Day     int    `json:"day"`
	Payload string `json:"payload"`
}

// Plan is an immutable reminder plan. Steps are sparse; days without a step
// fall back to the executor's default guidance.
type Plan struct {
	ID        string
	UserID    int64
	Timezone  string
	Steps     []PlanStep
	CreatedAt time.Time
}

// Step returns the payload for the given day and whether one exists.
func (p *Plan) Step(day int) (string, bool) {
	for _, s := range p.Steps {
		if s.Day == day {
			return s.Payload, true
		}
	}
	return "", false
}

// TaskKind discriminates scheduled task rows. Reminders are the only kind
// today; the column exists so future one-shot work shares the same queue.
type TaskKind string

const TaskReminder TaskKind = "reminder"

// Task is a one-shot deferred job. A task is pending until CompletedAt is
// set; failed deliveries bump Attempts and push RunAt forward until the
// executor abandons them.
type Task struct {
	ID          int64
	Kind        TaskKind
	UserID      int64
	PlanID      string
	Day         int
	RunAt       time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
	Attempts    int
	LastError   string
}

// HealthSummary is the store-level snapshot reported by the daemon health
// endpoint and the CLI status command.
type HealthSummary struct {
	Records      int
	Committed    int
	Active       int
	Inactive     int
	PendingTasks int
}
