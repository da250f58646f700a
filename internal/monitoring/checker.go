package monitoring

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/model"
)

// Checker turns a finished report into metrics and alerts.
type Checker struct {
	metrics *Metrics
	alerter *Alerter
}

// NewChecker creates a report checker. Either argument may be nil.
func NewChecker(metrics *Metrics, alerter *Alerter) *Checker {
	return &Checker{metrics: metrics, alerter: alerter}
}

// Check collects a snapshot of r, publishes it and sends any alerts it
// triggers. It returns the alerts that fired.
func (c *Checker) Check(ctx context.Context, r *model.Report) []Alert {
	log := zap.L().With(zap.String("component", "monitoring.checker"))

	snap := Collect(r)
	if c.metrics != nil {
		c.metrics.ObserveSnapshot(snap)
	}
	if c.alerter == nil {
		return nil
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return nil
	}
	for _, a := range alerts {
		log.Warn("monitoring: threshold breached",
			zap.String("type", string(a.Type)),
			zap.String("message", a.Message),
		)
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
	return alerts
}
