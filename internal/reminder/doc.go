// Package reminder schedules and delivers daily roadmap reminders.
//
// A plan arrives once, is stored immutably, and fans out into one deferred
// task per day at the configured local send hour in the artist's time zone.
// The Scheduler owns that fan-out; the Executor runs when a task comes due
// and pushes the day's guidance through the notification service.
package reminder
