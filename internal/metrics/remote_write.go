package metrics

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"dutlink/internal/config"

	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"
)

func StartRemoteWrite(ctx context.Context, cfg config.MetricsExportConfig, m *Metrics) {
	if !cfg.Enabled || cfg.RemoteWriteURL == "" {
		return
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	token := config.ResolveSecret(cfg.BearerToken)
	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendSnapshot(ctx, client, cfg.RemoteWriteURL, token, m.Snapshot())
			}
		}
	}()
}

func sendSnapshot(ctx context.Context, client *http.Client, url, token string, snap Snapshot) {
	now := time.Now().UnixMilli()
	series := []prompb.TimeSeries{
		newSeries("dutlink_packets_sent_total", float64(snap.PacketsSent), now),
		newSeries("dutlink_packets_received_total", float64(snap.PacketsReceived), now),
		newSeries("dutlink_bytes_sent_total", float64(snap.BytesSent), now),
		newSeries("dutlink_bytes_received_total", float64(snap.BytesReceived), now),
		newSeries("dutlink_errors_total", float64(snap.Errors), now),
		newSeries("dutlink_timeouts_total", float64(snap.Timeouts), now),
		newSeries("dutlink_probe_latency_us", snap.LatencyUs, now),
	}
	req := &prompb.WriteRequest{Timeseries: series}
	data, err := req.Marshal()
	if err != nil {
		return
	}
	compressed := snappy.Encode(nil, data)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(compressed))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	_, _ = client.Do(httpReq)
}

func newSeries(name string, value float64, ts int64) prompb.TimeSeries {
	return prompb.TimeSeries{
		Labels:  []prompb.Label{{Name: "__name__", Value: name}},
		Samples: []prompb.Sample{{Value: value, Timestamp: ts}},
	}
}
