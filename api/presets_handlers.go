package api

import (
	"net/http"
	"strings"

	"dutlink/internal/presets"
	"dutlink/pkg/link"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetPresets(c *gin.Context) {
	if h.Presets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presets not configured"})
		return
	}
	c.JSON(http.StatusOK, h.Presets.List())
}

func (h *Handlers) GetPreset(c *gin.Context) {
	preset, ok := h.getPresetOrFail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *Handlers) CreatePreset(c *gin.Context) {
	if h.Presets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presets not configured"})
		return
	}
	var req presets.Preset
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Presets.Save(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": req.ID})
}

// StressPreset runs a stress round with the preset's parameters merged
// over the endpoint defaults.
func (h *Handlers) StressPreset(c *gin.Context) {
	preset, ok := h.getPresetOrFail(c)
	if !ok {
		return
	}
	if !h.ready(c) {
		return
	}

	params, _ := presets.Merge(presets.Params{
		PacketSize: link.DefaultStressPacket,
		DurationMs: 1000,
	}, preset)

	h.mu.Lock()
	stats := h.Endpoint.StressTest(uint32(params.DurationMs), params.PacketSize)
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"preset": preset.ID, "stats": stats})
}

func (h *Handlers) getPresetOrFail(c *gin.Context) (presets.Preset, bool) {
	if h.Presets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presets not configured"})
		return presets.Preset{}, false
	}
	id := strings.TrimSpace(c.Param("id"))
	preset, ok := h.Presets.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
		return presets.Preset{}, false
	}
	return preset, true
}
