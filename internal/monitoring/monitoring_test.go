package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		Tables: []model.HubTable{
			{
				Hub:     model.Hub{Name: "A"},
				Rows:    make([]model.DistanceRow, 6),
				Skipped: []string{"9"},
			},
			{
				Hub:     model.Hub{Name: "B"},
				Rows:    make([]model.DistanceRow, 2),
				Skipped: []string{"9"},
			},
		},
		Mismatches: []model.MismatchRecord{
			{Pincode: "1", CurrentHub: "A", NearestHub: "B", DifferenceKM: 4.5},
			{Pincode: "2", CurrentHub: "A", NearestHub: "B", DifferenceKM: 12.25},
		},
		Skipped:       model.SkipSummary{Pincodes: []string{"9"}, Total: 1},
		MultiAssigned: []model.MultiAssignment{{Pincode: "9", Hubs: []string{"A", "B"}}},
	}
}

func TestCollect(t *testing.T) {
	snap := Collect(testReport())
	assert.Equal(t, 2, snap.Hubs)
	assert.Equal(t, 8, snap.Resolved)
	assert.Equal(t, 10, snap.Assignments)
	assert.Equal(t, 1, snap.Unresolved)
	assert.Equal(t, 2, snap.Mismatches)
	assert.Equal(t, 1, snap.MultiAssigned)
	assert.InDelta(t, 0.2, snap.MismatchRate, 1e-12)
	assert.InDelta(t, 0.2, snap.UnresolvedRate, 1e-12)
	assert.Equal(t, 12.25, snap.MaxDifferenceKM)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollect_EmptyReport(t *testing.T) {
	snap := Collect(&model.Report{})
	assert.Zero(t, snap.Assignments)
	assert.Zero(t, snap.MismatchRate)
	assert.Zero(t, snap.UnresolvedRate)
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		MismatchRateThreshold:   0.5,
		UnresolvedRateThreshold: 0.5,
		MaxDifferenceKM:         20,
	})
	assert.Empty(t, a.Evaluate(Collect(testReport())))
}

func TestAlerter_Evaluate_AllThresholds(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		MismatchRateThreshold:   0.1,
		UnresolvedRateThreshold: 0.1,
		MaxDifferenceKM:         10,
	})
	alerts := a.Evaluate(Collect(testReport()))
	require.Len(t, alerts, 3)
	assert.Equal(t, AlertMismatchRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "20.0%")
	assert.Equal(t, AlertUnresolvedRate, alerts[1].Type)
	assert.Equal(t, "high", alerts[1].Severity)
	assert.Equal(t, AlertLongDetour, alerts[2].Type)
	assert.Contains(t, alerts[2].Message, "12.25 km")
}

func TestAlerter_Evaluate_ZeroThresholdsDisabled(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Empty(t, a.Evaluate(Collect(testReport())))
}

func TestAlerter_Evaluate_SmallReportSkipsRates(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{MismatchRateThreshold: 0.01})
	snap := &Snapshot{Assignments: 2, Mismatches: 2, MismatchRate: 1}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertMismatchRate, Severity: "medium", Message: "a"},
		{Type: AlertLongDetour, Severity: "medium", Message: "b"},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertMismatchRate}}))
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertMismatchRate}}))
}

func TestMetrics_ObserveResolve(t *testing.T) {
	m := NewMetrics()
	m.ObserveResolve("geocode", "resolved", 20*time.Millisecond)
	m.ObserveResolve("geocode", "resolved", 10*time.Millisecond)
	m.ObserveResolve("geocode", "unresolved", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolveTotal.WithLabelValues("geocode", "resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolveTotal.WithLabelValues("geocode", "unresolved")))
}

func TestMetrics_ObserveSnapshot(t *testing.T) {
	m := NewMetrics()
	m.ObserveSnapshot(Collect(testReport()))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hubs))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.assignments))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mismatches))
	assert.Equal(t, 12.25, testutil.ToFloat64(m.maxDifference))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP(http.MethodGet, "/hubs", http.StatusOK, time.Millisecond)
	m.ObserveResolve("static", "resolved", time.Microsecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `hubmatch_http_requests_total{method="GET",route="/hubs",status="200"} 1`)
	assert.Contains(t, body, `hubmatch_resolve_total{backend="static",outcome="resolved"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestChecker_Check(t *testing.T) {
	m := NewMetrics()
	c := NewChecker(m, NewAlerter(config.MonitoringConfig{MaxDifferenceKM: 5}))

	alerts := c.Check(context.Background(), testReport())
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLongDetour, alerts[0].Type)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mismatches))
}

func TestChecker_NilParts(t *testing.T) {
	assert.Nil(t, NewChecker(nil, nil).Check(context.Background(), testReport()))
}
