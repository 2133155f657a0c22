package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"dutlink/internal/presets"
)

func withPresets(t *testing.T, handlers *Handlers, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write preset: %v", err)
		}
	}
	store, err := presets.LoadStore(dir)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	handlers.Presets = store
}

func TestGetPresetsUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t, true)
	resp := doJSON(t, router, http.MethodGet, "/api/presets", nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestGetPresetsList(t *testing.T) {
	router, handlers := newTestRouter(t, true)
	withPresets(t, handlers, map[string]string{
		"quick.json": `{"id":"quick","name":"Quick","params":{"packet_size":64,"count":5}}`,
	})

	resp := doJSON(t, router, http.MethodGet, "/api/presets", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var list []presets.PresetSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if len(list) != 1 || list[0].ID != "quick" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	router, handlers := newTestRouter(t, true)
	withPresets(t, handlers, nil)

	resp := doJSON(t, router, http.MethodGet, "/api/presets/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCreatePreset(t *testing.T) {
	router, handlers := newTestRouter(t, true)
	withPresets(t, handlers, nil)

	resp := doJSON(t, router, http.MethodPost, "/api/presets", presets.Preset{
		ID:     "burst",
		Name:   "Burst",
		Params: presets.Params{PacketSize: 128, Count: 50},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", resp.Code, resp.Body.String())
	}
	if _, ok := handlers.Presets.Get("burst"); !ok {
		t.Fatalf("expected preset to be stored")
	}
}

func TestCreatePresetInvalidID(t *testing.T) {
	router, handlers := newTestRouter(t, true)
	withPresets(t, handlers, nil)

	resp := doJSON(t, router, http.MethodPost, "/api/presets", presets.Preset{ID: "bad id"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStressPreset(t *testing.T) {
	router, handlers := newTestRouter(t, true)
	withPresets(t, handlers, map[string]string{
		"tiny.json": `{"id":"tiny","params":{"packet_size":16,"duration_ms":1}}`,
	})

	resp := doJSON(t, router, http.MethodPost, "/api/presets/tiny/stress", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", resp.Code, resp.Body.String())
	}
	var body struct {
		Preset string `json:"preset"`
		Stats  struct {
			PacketsSent uint64 `json:"packets_sent"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.Preset != "tiny" {
		t.Fatalf("expected preset tiny, got %q", body.Preset)
	}
	if body.Stats.PacketsSent == 0 {
		t.Fatalf("expected at least one packet sent")
	}
}
