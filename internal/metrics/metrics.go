// Package metrics exposes Prometheus instrumentation for the compliance
// engine. The daemon creates one Metrics value and threads it through the
// components; everything accepts a nil *Metrics so tests and the CLI can
// skip registration entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the daemon registers.
type Metrics struct {
	ScansTotal           prometheus.Counter
	ScanDuration         prometheus.Histogram
	DemotionsTotal       prometheus.Counter
	RestorationsTotal    prometheus.Counter
	EventsTotal          prometheus.Counter
	RemindersSent        prometheus.Counter
	NotificationFailures prometheus.Counter
	RoleCallFailures     prometheus.Counter
	ArtistsActive        prometheus.Gauge
	ArtistsInactive      prometheus.Gauge
	ArtistsCommitted     prometheus.Gauge
}

// New registers and returns the engine's collectors. Call at most once per
// process.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_scans_total",
			Help: "Total number of completed compliance scans",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atelier_scan_duration_seconds",
			Help:    "Duration of compliance scan passes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DemotionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_demotions_total",
			Help: "Total number of artists demoted by scans",
		}),
		RestorationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_restorations_total",
			Help: "Total number of artists restored after clearing their deficit",
		}),
		EventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_qualifying_events_total",
			Help: "Total number of qualifying events processed",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_reminders_sent_total",
			Help: "Total number of roadmap reminders delivered",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_notification_failures_total",
			Help: "Total number of failed notification deliveries",
		}),
		RoleCallFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_role_call_failures_total",
			Help: "Total number of failed role directory calls",
		}),
		ArtistsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_artists_active",
			Help: "Tracked artists currently in active status",
		}),
		ArtistsInactive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_artists_inactive",
			Help: "Tracked artists currently in inactive status",
		}),
		ArtistsCommitted: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_artists_committed",
			Help: "Tracked artists with the upload commitment enabled",
		}),
	}
}

// ObserveScan records one finished scan pass.
func (m *Metrics) ObserveScan(start time.Time) {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(time.Since(start).Seconds())
}

// IncDemotions adds demotions from a scan pass.
func (m *Metrics) IncDemotions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DemotionsTotal.Add(float64(n))
}

// IncRestorations records an artist returning to active status.
func (m *Metrics) IncRestorations() {
	if m == nil {
		return
	}
	m.RestorationsTotal.Inc()
}

// IncEvents records a processed qualifying event.
func (m *Metrics) IncEvents() {
	if m == nil {
		return
	}
	m.EventsTotal.Inc()
}

// IncRemindersSent records a delivered reminder.
func (m *Metrics) IncRemindersSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

// IncNotificationFailures records a failed notification delivery.
func (m *Metrics) IncNotificationFailures() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

// IncRoleCallFailures records a failed role directory call.
func (m *Metrics) IncRoleCallFailures() {
	if m == nil {
		return
	}
	m.RoleCallFailures.Inc()
}

// SetRosterCounts refreshes the roster gauges from a store health summary.
func (m *Metrics) SetRosterCounts(active, inactive, committed int) {
	if m == nil {
		return
	}
	m.ArtistsActive.Set(float64(active))
	m.ArtistsInactive.Set(float64(inactive))
	m.ArtistsCommitted.Set(float64(committed))
}
