package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.IncPacketsSent()
	m.IncPacketsSent()
	m.IncPacketsReceived()
	m.AddBytesSent(150)
	m.AddBytesReceived(80)
	m.IncErrors()
	m.IncTimeouts()
	m.IncTimeouts()
	m.SetLatencyUs(420.25)

	s := m.Snapshot()
	if s.PacketsSent != 2 {
		t.Fatalf("expected packets sent 2, got %d", s.PacketsSent)
	}
	if s.PacketsReceived != 1 {
		t.Fatalf("expected packets received 1, got %d", s.PacketsReceived)
	}
	if s.BytesSent != 150 {
		t.Fatalf("expected bytes sent 150, got %d", s.BytesSent)
	}
	if s.BytesReceived != 80 {
		t.Fatalf("expected bytes received 80, got %d", s.BytesReceived)
	}
	if s.Errors != 1 {
		t.Fatalf("expected errors 1, got %d", s.Errors)
	}
	if s.Timeouts != 2 {
		t.Fatalf("expected timeouts 2, got %d", s.Timeouts)
	}
	if s.LatencyUs != 420.25 {
		t.Fatalf("expected latency 420.25, got %v", s.LatencyUs)
	}
}

func TestMetricsNegativeBytesIgnored(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.AddBytesSent(-1)
	m.AddBytesReceived(-5)

	s := m.Snapshot()
	if s.BytesSent != 0 || s.BytesReceived != 0 {
		t.Fatalf("expected negative byte counts ignored, got %+v", s)
	}
}
