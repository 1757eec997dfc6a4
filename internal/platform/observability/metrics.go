package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DigestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_runs_total",
		Help: "Digest runs by final status",
	}, []string{"status"})

	DigestRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jobdigest_run_duration_seconds",
		Help:    "Duration of a digest run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_deliveries_total",
		Help: "Final per-contact delivery outcomes",
	}, []string{"channel", "status"})

	DeliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_delivery_attempts_total",
		Help: "Individual send attempts including retries",
	}, []string{"channel"})

	PendingJobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jobdigest_pending_jobs",
		Help: "Jobs not yet included in a delivered digest",
	}, []string{"source"})

	JobsMarkedNotified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_jobs_marked_notified_total",
		Help: "Jobs flipped to notified after a run",
	}, []string{"source"})

	DeliveryFailureRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobdigest_failure_rate",
		Help: "Delivery failure rate over the alert window",
	})

	Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_alerts_total",
		Help: "Operational alerts raised by kind",
	}, []string{"kind"})

	WebhookUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobdigest_webhook_updates_total",
		Help: "Inbound Telegram updates by match result",
	}, []string{"result"})
)
