package compliance

import (
	"fmt"
	"time"

	"atelier/internal/config"
)

// Policy holds the obligation parameters a scan evaluates records against.
type Policy struct {
	// GracePeriod is how long an artist may go without a qualifying upload
	// before losing active status.
	GracePeriod time.Duration
	// Cycle is the recurring obligation window.
	Cycle time.Duration
	// Requirement is the number of qualifying uploads expected per cycle.
	Requirement int
}

// PolicyFromConfig builds a Policy from the compliance config section.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		GracePeriod: cfg.Compliance.GracePeriod(),
		Cycle:       cfg.Compliance.Cycle(),
		Requirement: cfg.Compliance.CycleRequirement,
	}
}

// Validate reports whether the policy is internally consistent.
func (p Policy) Validate() error {
	if p.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive")
	}
	if p.Cycle <= 0 {
		return fmt.Errorf("cycle must be positive")
	}
	if p.GracePeriod < p.Cycle {
		return fmt.Errorf("grace period %s is shorter than the cycle %s", p.GracePeriod, p.Cycle)
	}
	if p.Requirement <= 0 {
		return fmt.Errorf("cycle requirement must be positive")
	}
	return nil
}

// OwedAfter computes the total uploads owed after the given time has elapsed
// since the last qualifying event. Partial cycles count as whole ones, so an
// artist eight days quiet under a seven-day cycle owes two cycles' worth.
func (p Policy) OwedAfter(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	cycles := int(elapsed / p.Cycle)
	if elapsed%p.Cycle != 0 {
		cycles++
	}
	return cycles * p.Requirement
}

// WithinGrace reports whether an artist last active at the given elapsed
// distance is still inside the grace window.
func (p Policy) WithinGrace(elapsed time.Duration) bool {
	return elapsed <= p.GracePeriod
}
