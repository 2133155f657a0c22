package api

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"sync"

	"dutlink/internal/metrics"
	"dutlink/internal/observability"
	"dutlink/internal/platform"
	"dutlink/internal/presets"
	"dutlink/pkg/link"
	"dutlink/pkg/packet"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Endpoint      *link.Endpoint
	Metrics       *metrics.Metrics
	Presets       *presets.Store
	Observability *observability.Store
	Alerts        *observability.AlertStore

	// probe and stress share the one raw socket
	mu sync.Mutex
}

func (h *Handlers) GetStatus(c *gin.Context) {
	ready := h.Endpoint != nil && h.Endpoint.IsReady()
	resp := gin.H{
		"status": "ok",
		"ready":  ready,
	}
	if h.Metrics != nil {
		resp["totals"] = h.Metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) GetStats(c *gin.Context) {
	if h.Endpoint == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "link endpoint not configured"})
		return
	}
	c.JSON(http.StatusOK, h.StatsSnapshot())
}

func (h *Handlers) ResetStats(c *gin.Context) {
	if h.Endpoint == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "link endpoint not configured"})
		return
	}
	h.mu.Lock()
	h.Endpoint.ResetStatistics()
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatsSnapshot copies the endpoint counters under the same lock the
// handlers mutate them under. The endpoint itself is single-consumer, so
// every reader outside the request path must come through here.
func (h *Handlers) StatsSnapshot() link.PacketStats {
	if h.Endpoint == nil {
		return link.PacketStats{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Endpoint.Statistics()
}

func (h *Handlers) GetTraces(c *gin.Context) {
	if h.Observability == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "observability disabled"})
		return
	}
	traces := h.Observability.List()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(traces),
		"limit":  h.Observability.Limit(),
		"traces": traces,
	})
}

func (h *Handlers) GetAlerts(c *gin.Context) {
	if h.Alerts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alerts disabled"})
		return
	}
	alerts := h.Alerts.List()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (h *Handlers) Probe(c *gin.Context) {
	var req struct {
		Payload      string `json:"payload"`
		Command      uint8  `json:"command"`
		Sequence     uint16 `json:"sequence"`
		Framed       bool   `json:"framed"`
		WithChecksum bool   `json:"with_checksum"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !h.ready(c) {
		return
	}

	payload, err := hex.DecodeString(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be hex"})
		return
	}

	data := payload
	if req.Framed {
		data, err = packet.Build(req.Command, req.Sequence, payload, req.WithChecksum)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty probe"})
		return
	}

	h.mu.Lock()
	result := h.Endpoint.SendAndReceive(data)
	h.mu.Unlock()

	// the endpoint counters have no timeout column, so account for it here
	if h.Metrics != nil && !result.Success && result.ErrorMessage == "Response timeout" {
		h.Metrics.IncTimeouts()
	}

	resp := gin.H{
		"success":    result.Success,
		"latency_us": result.LatencyUs,
	}
	if result.Success {
		resp["data"] = hex.EncodeToString(result.Data)
	} else {
		resp["error"] = result.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) Stress(c *gin.Context) {
	var req struct {
		DurationMs int `json:"duration_ms"`
		PacketSize int `json:"packet_size"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.DurationMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_ms must not be negative"})
		return
	}
	if !h.ready(c) {
		return
	}

	h.mu.Lock()
	stats := h.Endpoint.StressTest(uint32(req.DurationMs), req.PacketSize)
	h.mu.Unlock()
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) MeasureLatency(c *gin.Context) {
	var req struct {
		PacketSize int `json:"packet_size"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !h.ready(c) {
		return
	}
	size := req.PacketSize
	if size <= 0 {
		size = link.DefaultStressPacket
	}

	h.mu.Lock()
	latency := h.Endpoint.MeasureLatency(bytes.Repeat([]byte{0xAA}, size))
	h.mu.Unlock()
	if latency < 0 {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "latency_us": latency})
}

func (h *Handlers) GetInterfaces(c *gin.Context) {
	infos, err := platform.ListInterfaces()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (h *Handlers) ready(c *gin.Context) bool {
	if h.Endpoint == nil || !h.Endpoint.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "link endpoint not ready"})
		return false
	}
	return true
}
