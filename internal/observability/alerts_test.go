package observability

import (
	"testing"

	"dutlink/internal/config"
	"dutlink/internal/metrics"
)

func TestEvaluateAlertsThresholds(t *testing.T) {
	cfg := config.AlertsConfig{
		ErrorsThreshold:    5,
		TimeoutsThreshold:  10,
		LatencyThresholdUs: 500,
	}
	prev := metrics.Snapshot{
		Errors:   10,
		Timeouts: 100,
	}
	curr := metrics.Snapshot{
		Errors:    16,
		Timeouts:  104,
		LatencyUs: 750,
	}
	alerts := EvaluateAlerts(prev, curr, cfg)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if !hasAlertType(alerts, AlertErrors) {
		t.Fatalf("expected errors alert")
	}
	if !hasAlertType(alerts, AlertLatency) {
		t.Fatalf("expected latency alert")
	}
}

func TestEvaluateAlertsNoThresholds(t *testing.T) {
	alerts := EvaluateAlerts(metrics.Snapshot{}, metrics.Snapshot{Errors: 100}, config.AlertsConfig{})
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts without thresholds, got %d", len(alerts))
	}
}

func TestEvaluateAlertsCounterReset(t *testing.T) {
	cfg := config.AlertsConfig{ErrorsThreshold: 1}
	prev := metrics.Snapshot{Errors: 50}
	curr := metrics.Snapshot{Errors: 3}
	alerts := EvaluateAlerts(prev, curr, cfg)
	if len(alerts) != 0 {
		t.Fatalf("expected no alert after counter reset, got %d", len(alerts))
	}
}

func TestAlertStoreLimit(t *testing.T) {
	store := NewAlertStore(2)
	store.Add(Alert{ID: "a"})
	store.Add(Alert{ID: "b"})
	store.Add(Alert{ID: "c"})
	latest := store.List()
	if len(latest) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(latest))
	}
	if latest[0].ID != "b" || latest[1].ID != "c" {
		t.Fatalf("unexpected alerts order: %#v", latest)
	}
}

func hasAlertType(alerts []Alert, typ AlertType) bool {
	for _, alert := range alerts {
		if alert.Type == typ {
			return true
		}
	}
	return false
}
