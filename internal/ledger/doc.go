// Package ledger persists the compliance engine's durable state in SQLite.
//
// The Store owns four tables: compliance records (one per committed artist),
// immutable reminder plans, scheduled one-shot tasks (the deferred-task
// mechanism the reminder scheduler registers against), and the notification
// delivery log used for dedup and delivery-attempt auditing.
//
// All record mutation funnels through WithRecord, which wraps the
// read-modify-write in a transaction retried on SQLITE_BUSY; combined with
// SQLite's single-writer model this serializes the event processor against a
// concurrently running scan for the same artist.
//
// Treat this package as the single source of truth for persistence semantics;
// schema changes go in schema.sql and bump schemaVersion.
package ledger
