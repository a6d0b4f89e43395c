// Package metrics registers the monitor's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_scans_total",
		Help: "QR payloads fed into the session machine.",
	})
	AuthAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_auth_accepted_total",
		Help: "Successful faculty token authentications.",
	})
	AuthRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_auth_rejected_total",
		Help: "Token payloads that matched no faculty member.",
	})
	AttendeesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_attendees_recorded_total",
		Help: "Distinct attendee records appended to sessions.",
	})
	WarnsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_warns_fired_total",
		Help: "End-of-slot warnings raised.",
	})
	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_flushes_total",
		Help: "Attendance flush transitions.",
	})
	ExportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amc_export_failures_total",
		Help: "Batches whose gateway handoff failed; kept local only.",
	})
	SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "amc_session_active",
		Help: "1 while a host faculty is authenticated.",
	})
)
