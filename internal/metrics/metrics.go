package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"

	"dutlink/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	PacketsSentTotal     prometheus.Counter
	PacketsReceivedTotal prometheus.Counter
	BytesSentTotal       prometheus.Counter
	BytesReceivedTotal   prometheus.Counter
	ErrorsTotal          prometheus.Counter
	TimeoutsTotal        prometheus.Counter
	ProbeLatencyUs       prometheus.Gauge
	sentCount            atomic.Uint64
	receivedCount        atomic.Uint64
	bytesSentCount       atomic.Uint64
	bytesReceivedCount   atomic.Uint64
	errorsCount          atomic.Uint64
	timeoutsCount        atomic.Uint64
	latencyBits          atomic.Uint64
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PacketsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_packets_sent_total",
			Help: "Total number of packets sent to the device under test",
		}),
		PacketsReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_packets_received_total",
			Help: "Total number of packets received from the device under test",
		}),
		BytesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_bytes_sent_total",
			Help: "Total number of bytes sent",
		}),
		BytesReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_bytes_received_total",
			Help: "Total number of bytes received",
		}),
		ErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_errors_total",
			Help: "Total number of send and receive errors",
		}),
		TimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutlink_timeouts_total",
			Help: "Total number of receive timeouts",
		}),
		ProbeLatencyUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dutlink_probe_latency_us",
			Help: "Smoothed round trip latency in microseconds",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.PacketsSentTotal,
		m.PacketsReceivedTotal,
		m.BytesSentTotal,
		m.BytesReceivedTotal,
		m.ErrorsTotal,
		m.TimeoutsTotal,
		m.ProbeLatencyUs,
	)
	return m
}

func (m *Metrics) IncPacketsSent() {
	m.sentCount.Add(1)
	m.PacketsSentTotal.Inc()
}

func (m *Metrics) IncPacketsReceived() {
	m.receivedCount.Add(1)
	m.PacketsReceivedTotal.Inc()
}

func (m *Metrics) AddBytesSent(n int) {
	if n < 0 {
		return
	}
	m.bytesSentCount.Add(uint64(n))
	m.BytesSentTotal.Add(float64(n))
}

func (m *Metrics) AddBytesReceived(n int) {
	if n < 0 {
		return
	}
	m.bytesReceivedCount.Add(uint64(n))
	m.BytesReceivedTotal.Add(float64(n))
}

func (m *Metrics) IncErrors() {
	m.errorsCount.Add(1)
	m.ErrorsTotal.Inc()
}

func (m *Metrics) IncTimeouts() {
	m.timeoutsCount.Add(1)
	m.TimeoutsTotal.Inc()
}

func (m *Metrics) SetLatencyUs(v float64) {
	m.latencyBits.Store(math.Float64bits(v))
	m.ProbeLatencyUs.Set(v)
}

type Snapshot struct {
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64
	Errors          uint64
	Timeouts        uint64
	LatencyUs       float64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		PacketsSent:     m.sentCount.Load(),
		PacketsReceived: m.receivedCount.Load(),
		BytesSent:       m.bytesSentCount.Load(),
		BytesReceived:   m.bytesReceivedCount.Load(),
		Errors:          m.errorsCount.Load(),
		Timeouts:        m.timeoutsCount.Load(),
		LatencyUs:       math.Float64frombits(m.latencyBits.Load()),
	}
}

func StartServer(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
