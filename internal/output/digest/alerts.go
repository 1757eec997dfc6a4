package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
)

// evaluateAlerts checks the backlog and the rolling failure rate. It records
// errors under the alerts stage but never changes the run's ok flag.
func (o *Orchestrator) evaluateAlerts(ctx context.Context, summary *domain.RunSummary, cutoff *time.Time, logger *zerolog.Logger) {
	var alerts []string

	counts, err := o.jobs.CountPendingJobs(ctx, cutoff)
	if err != nil {
		summary.AddError(domain.StageAlerts, fmt.Errorf("count pending jobs: %w", err))
		logger.Warn().Err(err).Msg("failed to count pending jobs")
	} else {
		observability.PendingJobs.WithLabelValues(string(domain.SourcePrimary)).Set(float64(counts.Jobs))
		observability.PendingJobs.WithLabelValues(string(domain.SourceSecondary)).Set(float64(counts.AIJobs))

		if o.alerts.BacklogThreshold > 0 && counts.Total >= o.alerts.BacklogThreshold {
			observability.Alerts.WithLabelValues(AlertBacklog).Inc()
			logger.Warn().Int(LogFieldBacklog, counts.Total).Int("threshold", o.alerts.BacklogThreshold).Msg("pending jobs backlog above threshold")

			alerts = append(alerts, fmt.Sprintf("Backlog alert: %d pending jobs (threshold %d)", counts.Total, o.alerts.BacklogThreshold))
		}
	}

	rate, err := o.log.FailureRate(ctx, o.alerts.FailureWindow)
	if err != nil {
		summary.AddError(domain.StageAlerts, fmt.Errorf("failure rate: %w", err))
		logger.Warn().Err(err).Msg("failed to compute delivery failure rate")
	} else {
		observability.DeliveryFailureRate.Set(rate.FailureRate)

		if rate.Total >= o.alerts.MinSample && rate.Total > 0 && rate.FailureRate > o.alerts.FailureRateThreshold {
			observability.Alerts.WithLabelValues(AlertFailureRate).Inc()
			logger.Warn().
				Float64(LogFieldRate, rate.FailureRate).
				Int("total", rate.Total).
				Int(LogFieldFailed, rate.Failed).
				Msg("delivery failure rate above threshold")

			alerts = append(alerts, fmt.Sprintf("Delivery alert: failure rate %.1f%% (%d of %d) over %s",
				rate.FailureRate*100, rate.Failed, rate.Total, o.alerts.FailureWindow))
		}
	}

	o.sendAlerts(ctx, alerts, logger)
}

func (o *Orchestrator) sendAlerts(ctx context.Context, alerts []string, logger *zerolog.Logger) {
	if o.alertSender == nil || o.alerts.ChatID == "" {
		return
	}

	for _, text := range alerts {
		if _, err := o.alertSender.SendMessage(ctx, o.alerts.ChatID, text); err != nil {
			logger.Warn().Err(err).Msg("failed to deliver alert")
		}
	}
}
