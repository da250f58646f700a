package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertMismatchRate   AlertType = "mismatch_rate"
	AlertUnresolvedRate AlertType = "unresolved_rate"
	AlertLongDetour     AlertType = "long_detour"
)

// minAssignments is the smallest report for which rate alerts fire.
const minAssignments = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
// A zero threshold disables its check.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if a.cfg.MismatchRateThreshold > 0 && snap.Assignments >= minAssignments &&
		snap.MismatchRate > a.cfg.MismatchRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertMismatchRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Mismatch rate %.1f%% exceeds threshold %.1f%% (%d of %d assignments)",
				snap.MismatchRate*100, a.cfg.MismatchRateThreshold*100,
				snap.Mismatches, snap.Assignments,
			),
			Details: map[string]any{
				"mismatch_rate": snap.MismatchRate,
				"threshold":     a.cfg.MismatchRateThreshold,
				"mismatches":    snap.Mismatches,
				"assignments":   snap.Assignments,
			},
			Timestamp: now,
		})
	}

	if a.cfg.UnresolvedRateThreshold > 0 && snap.Assignments >= minAssignments &&
		snap.UnresolvedRate > a.cfg.UnresolvedRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertUnresolvedRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Unresolved rate %.1f%% exceeds threshold %.1f%% (%d distinct postal codes)",
				snap.UnresolvedRate*100, a.cfg.UnresolvedRateThreshold*100, snap.Unresolved,
			),
			Details: map[string]any{
				"unresolved_rate": snap.UnresolvedRate,
				"threshold":       a.cfg.UnresolvedRateThreshold,
				"unresolved":      snap.Unresolved,
			},
			Timestamp: now,
		})
	}

	if a.cfg.MaxDifferenceKM > 0 && snap.MaxDifferenceKM > a.cfg.MaxDifferenceKM {
		alerts = append(alerts, Alert{
			Type:     AlertLongDetour,
			Severity: "medium",
			Message: fmt.Sprintf(
				"A postal code is %.2f km closer to another hub (threshold %.2f km)",
				snap.MaxDifferenceKM, a.cfg.MaxDifferenceKM,
			),
			Details: map[string]any{
				"max_difference_km": snap.MaxDifferenceKM,
				"threshold_km":      a.cfg.MaxDifferenceKM,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
