package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dutlink/internal/logger"
	"dutlink/internal/runner"
	"dutlink/pkg/link"

	"github.com/andybalholm/brotli"
)

// Report is one run of the harness against a device.
type Report struct {
	Interface  string           `json:"interface"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stats      link.PacketStats `json:"stats"`
	Suite      *runner.Summary  `json:"suite,omitempty"`
}

type Writer struct {
	dir      string
	compress bool
	log      *logger.Logger
}

func NewWriter(dir string, compress bool, log *logger.Logger) *Writer {
	return &Writer{dir: dir, compress: compress, log: log}
}

// Write stores the report as JSON, brotli-compressed when configured,
// and returns the file path.
func (w *Writer) Write(r Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	name := "run-" + r.StartedAt.Format("20060102-150405")
	if w.compress {
		name += ".json.br"
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		if _, err := bw.Write(data); err != nil {
			return "", fmt.Errorf("compress report: %w", err)
		}
		if err := bw.Close(); err != nil {
			return "", fmt.Errorf("compress report: %w", err)
		}
		data = buf.Bytes()
	} else {
		name += ".json"
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if w.log != nil {
		w.log.Info("report written", map[string]any{"path": path})
	}
	return path, nil
}

// Read loads a report written by Write, transparently decompressing.
func Read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	if filepath.Ext(path) == ".br" {
		raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
		if err != nil {
			return Report{}, fmt.Errorf("decompress report: %w", err)
		}
		data = raw
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("parse report: %w", err)
	}
	return r, nil
}

// Summarize logs the headline numbers of a finished run.
func Summarize(r Report, log *logger.Logger) {
	if log == nil {
		return
	}
	fields := map[string]any{
		"interface":        r.Interface,
		"packets_sent":     r.Stats.PacketsSent,
		"packets_received": r.Stats.PacketsReceived,
		"errors":           r.Stats.Errors,
		"avg_latency_us":   r.Stats.AvgLatencyUs,
	}
	if r.Suite != nil {
		fields["passed"] = r.Suite.Passed
		fields["failed"] = r.Suite.Failed
		fields["suite_errors"] = r.Suite.Errors
		fields["skipped"] = r.Suite.Skipped
	}
	log.Info("run summary", fields)
}
