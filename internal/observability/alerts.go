package observability

import (
	"sync"
	"time"

	"dutlink/internal/config"
	"dutlink/internal/metrics"
)

type AlertType string

const (
	AlertErrors   AlertType = "errors"
	AlertTimeouts AlertType = "timeouts"
	AlertLatency  AlertType = "latency"
)

type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp int64     `json:"timestamp"`
}

type AlertStore struct {
	mu     sync.Mutex
	limit  int
	alerts []Alert
}

func NewAlertStore(limit int) *AlertStore {
	if limit <= 0 {
		limit = 1000
	}
	return &AlertStore{
		limit:  limit,
		alerts: make([]Alert, 0, limit),
	}
}

func (s *AlertStore) Add(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.limit {
		s.alerts = append([]Alert{}, s.alerts[len(s.alerts)-s.limit:]...)
	}
}

func (s *AlertStore) List() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, 0, len(s.alerts))
	out = append(out, s.alerts...)
	return out
}

func (s *AlertStore) Limit() int {
	return s.limit
}

// EvaluateAlerts compares two consecutive snapshots. Error and timeout
// thresholds apply to the delta between them, the latency threshold to
// the current smoothed value.
func EvaluateAlerts(prev metrics.Snapshot, curr metrics.Snapshot, cfg config.AlertsConfig) []Alert {
	out := make([]Alert, 0, 3)
	now := time.Now().Unix()
	if cfg.ErrorsThreshold > 0 {
		delta := counterDelta(prev.Errors, curr.Errors)
		if delta >= cfg.ErrorsThreshold {
			out = append(out, Alert{
				ID:        newAlertID(),
				Type:      AlertErrors,
				Message:   "errors threshold exceeded",
				Value:     float64(delta),
				Threshold: float64(cfg.ErrorsThreshold),
				Timestamp: now,
			})
		}
	}
	if cfg.TimeoutsThreshold > 0 {
		delta := counterDelta(prev.Timeouts, curr.Timeouts)
		if delta >= cfg.TimeoutsThreshold {
			out = append(out, Alert{
				ID:        newAlertID(),
				Type:      AlertTimeouts,
				Message:   "timeouts threshold exceeded",
				Value:     float64(delta),
				Threshold: float64(cfg.TimeoutsThreshold),
				Timestamp: now,
			})
		}
	}
	if cfg.LatencyThresholdUs > 0 && curr.LatencyUs >= cfg.LatencyThresholdUs {
		out = append(out, Alert{
			ID:        newAlertID(),
			Type:      AlertLatency,
			Message:   "latency threshold exceeded",
			Value:     curr.LatencyUs,
			Threshold: cfg.LatencyThresholdUs,
			Timestamp: now,
		})
	}
	return out
}

func counterDelta(prev, curr uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}

func newAlertID() string {
	return time.Now().Format("20060102150405.000000000")
}
