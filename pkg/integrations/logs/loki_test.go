package logs

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewLokiHookEmptyURL(t *testing.T) {
	if hook := NewLokiHook(""); hook != nil {
		t.Fatalf("expected nil hook for empty url")
	}
}

func TestLokiHookPostsEntry(t *testing.T) {
	got := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := NewLokiHook(server.URL)
	hook(map[string]any{"msg": "hello", "level": "info"})

	body := <-got
	var payload struct {
		Streams []struct {
			Stream map[string]string `json:"stream"`
			Values [][]string        `json:"values"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if len(payload.Streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(payload.Streams))
	}
	if payload.Streams[0].Stream["app"] != "dutlink" {
		t.Fatalf("unexpected stream labels: %v", payload.Streams[0].Stream)
	}
	if len(payload.Streams[0].Values) != 1 || len(payload.Streams[0].Values[0]) != 2 {
		t.Fatalf("unexpected values shape: %v", payload.Streams[0].Values)
	}
}
