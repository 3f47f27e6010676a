// Package compliance implements the artist compliance state machine.
//
// Two entry points mutate records: the Processor consumes qualifying upload
// events as they arrive, and the Scanner sweeps every committed artist on a
// schedule. Both funnel their writes through the ledger's transactional
// record helper, so an event landing mid-scan for the same artist serializes
// cleanly instead of losing an update.
//
// The Policy type holds the tunable obligation parameters: how long an
// artist may go quiet before demotion, the length of the recurring upload
// cycle, and how many uploads each cycle demands.
package compliance
