package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dutlink/api"
	"dutlink/internal/config"
	"dutlink/internal/logger"
	"dutlink/internal/metrics"
	"dutlink/internal/observability"
	"dutlink/internal/platform"
	"dutlink/internal/presets"
	"dutlink/internal/report"
	"dutlink/internal/runner"
	"dutlink/pkg/dut"
	"dutlink/pkg/integrations/logs"
	"dutlink/pkg/link"
	"dutlink/pkg/perf"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "serve", "serve, probe, stress, suite, dut or interfaces")
	ifaceOverride := flag.String("interface", "", "override the configured link interface")
	presetID := flag.String("preset", "", "preset id for probe and stress runs")
	cliCommand := flag.String("cli-command", "", "management CLI command to run in dut mode")
	loopback := flag.Bool("loopback", false, "use an in-memory echo link instead of a raw socket")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *ifaceOverride != "" {
		cfg.Link.Interface = *ifaceOverride
	}

	log := logger.New(cfg.Logging.Level)
	if hook := logs.NewLokiHook(cfg.Logging.LokiURL); hook != nil {
		log.AddHook(hook)
	}
	log.Info("config loaded", map[string]any{"path": *configPath, "mode": *mode})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "serve":
		runServe(ctx, cfg, log, *loopback)
	case "probe":
		runProbe(cfg, log, *presetID, *loopback)
	case "stress":
		runStress(cfg, log, *presetID, *loopback)
	case "suite":
		runSuite(ctx, cfg, log, *loopback)
	case "dut":
		runDUT(cfg, log, *cliCommand)
	case "interfaces":
		runInterfaces(log)
	default:
		log.Error("unknown mode", map[string]any{"mode": *mode})
		os.Exit(2)
	}
}

func newEndpoint(cfg *config.Config, log *logger.Logger, loopback bool) *link.Endpoint {
	var e *link.Endpoint
	if loopback {
		e = link.NewLoopback(cfg.Link.Interface)
	} else {
		e = link.New(cfg.Link.Interface, cfg.Link.TimeoutMs)
	}
	e.SetLogger(log)
	return e
}

func runServe(ctx context.Context, cfg *config.Config, log *logger.Logger, loopback bool) {
	endpoint := newEndpoint(cfg, log, loopback)
	if err := endpoint.Initialize(); err != nil {
		log.Warn("link endpoint unavailable", map[string]any{"err": err.Error()})
	}
	defer endpoint.Close()

	metricsSrv := metrics.New()
	go func() {
		if err := metrics.StartServer(ctx, cfg.Metrics); err != nil {
			log.Error("metrics server error", map[string]any{"err": err.Error()})
		}
	}()
	metrics.StartRemoteWrite(ctx, cfg.MetricsExport, metricsSrv)

	var traceStore *observability.Store
	var alertStore *observability.AlertStore
	if cfg.Observability.Enabled {
		traceStore = observability.NewStore(cfg.Observability.TraceLimit)
	}
	if cfg.Alerts.Enabled {
		alertStore = observability.NewAlertStore(cfg.Alerts.HistoryLimit)
	}

	var presetStore *presets.Store
	if cfg.Presets.Dir != "" {
		store, err := presets.LoadStore(cfg.Presets.Dir)
		if err != nil {
			log.Warn("presets unavailable", map[string]any{"err": err.Error()})
		} else {
			presetStore = store
		}
	}

	handlers := &api.Handlers{
		Endpoint:      endpoint,
		Metrics:       metricsSrv,
		Presets:       presetStore,
		Observability: traceStore,
		Alerts:        alertStore,
	}
	// the endpoint is single-consumer, so the loop reads its counters
	// through the handlers' lock instead of touching it directly
	if cfg.Alerts.Enabled {
		go runAlertLoop(ctx, cfg, log, handlers, metricsSrv, alertStore)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.TraceMiddleware(traceStore))
	router.Use(api.AuthMiddleware(cfg.Security, log))
	router.Use(api.AuditMiddleware(log))
	api.RegisterRoutes(router, handlers)
	if cfg.API.PprofPath != "" {
		api.RegisterPprof(router, cfg.API.PprofPath)
	}

	go func() {
		if err := router.Run(cfg.API.Address); err != nil {
			log.Error("api server error", map[string]any{"err": err.Error()})
		}
	}()
	if cfg.API.H3 {
		go func() {
			err := api.StartHTTP3Server(ctx, cfg.API.H3Address, cfg.API.CertFile, cfg.API.KeyFile, router)
			if err != nil {
				log.Error("h3 server error", map[string]any{"err": err.Error()})
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutdown", nil)
}

// runAlertLoop mirrors the endpoint's counters into prometheus and
// evaluates alert thresholds on each tick.
func runAlertLoop(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	handlers *api.Handlers,
	metricsSrv *metrics.Metrics,
	alerts *observability.AlertStore,
) {
	interval := time.Duration(cfg.Alerts.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prevStats link.PacketStats
	prevSnap := metricsSrv.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			curr := handlers.StatsSnapshot()
			syncMetrics(metricsSrv, prevStats, curr)
			prevStats = curr

			snap := metricsSrv.Snapshot()
			for _, alert := range observability.EvaluateAlerts(prevSnap, snap, cfg.Alerts) {
				alerts.Add(alert)
				log.Warn("alert raised", map[string]any{
					"type":      string(alert.Type),
					"value":     alert.Value,
					"threshold": alert.Threshold,
				})
			}
			prevSnap = snap
		}
	}
}

// syncMetrics applies the delta between two endpoint snapshots to the
// prometheus counters. A reset between snapshots yields a zero delta.
func syncMetrics(m *metrics.Metrics, prev, curr link.PacketStats) {
	for i := counterDelta(prev.PacketsSent, curr.PacketsSent); i > 0; i-- {
		m.IncPacketsSent()
	}
	for i := counterDelta(prev.PacketsReceived, curr.PacketsReceived); i > 0; i-- {
		m.IncPacketsReceived()
	}
	m.AddBytesSent(int(counterDelta(prev.BytesSent, curr.BytesSent)))
	m.AddBytesReceived(int(counterDelta(prev.BytesReceived, curr.BytesReceived)))
	for i := counterDelta(prev.Errors, curr.Errors); i > 0; i-- {
		m.IncErrors()
	}
	m.SetLatencyUs(curr.AvgLatencyUs)
}

func counterDelta(prev, curr uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}

func resolveParams(cfg *config.Config, log *logger.Logger, presetID string) presets.Params {
	params := presets.Params{
		PacketSize: link.DefaultStressPacket,
		Count:      10,
		DurationMs: 1000,
		TimeoutMs:  cfg.Link.TimeoutMs,
	}
	if presetID == "" {
		return params
	}
	if cfg.Presets.Dir == "" {
		log.Warn("preset requested but no presets dir configured", map[string]any{"preset": presetID})
		return params
	}
	store, err := presets.LoadStore(cfg.Presets.Dir)
	if err != nil {
		log.Warn("presets unavailable", map[string]any{"err": err.Error()})
		return params
	}
	preset, ok := store.Get(presetID)
	if !ok {
		log.Warn("preset not found", map[string]any{"preset": presetID})
		return params
	}
	merged, changed := presets.Merge(params, preset)
	log.Info("preset applied", map[string]any{"preset": presetID, "fields": changed})
	return merged
}

func probePayload(params presets.Params) []byte {
	if params.Payload != "" {
		if data, err := hex.DecodeString(params.Payload); err == nil && len(data) > 0 {
			return data
		}
	}
	size := params.PacketSize
	if size <= 0 {
		size = link.DefaultStressPacket
	}
	return bytes.Repeat([]byte{0xAA}, size)
}

func runProbe(cfg *config.Config, log *logger.Logger, presetID string, loopback bool) {
	params := resolveParams(cfg, log, presetID)
	payload := probePayload(params)
	interval := time.Duration(params.IntervalMs) * time.Millisecond

	endpoint := newEndpoint(cfg, log, loopback)
	endpoint.SetTimeout(params.TimeoutMs)
	if err := endpoint.Initialize(); err != nil {
		log.Error("initialize failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer endpoint.Close()

	recorder := &perf.LatencyRecorder{}
	started := time.Now()
	for i := 0; i < params.Count; i++ {
		recorder.Start()
		res := endpoint.SendAndReceive(payload)
		recorder.Stop()
		if res.Success {
			log.Info("probe ok", map[string]any{
				"seq":        i,
				"latency_us": res.LatencyUs,
				"bytes":      len(res.Data),
			})
		} else {
			log.Warn("probe failed", map[string]any{"seq": i, "reason": res.ErrorMessage})
		}
		if interval > 0 && i < params.Count-1 {
			time.Sleep(interval)
		}
	}

	summary := recorder.Summary()
	log.Info("latency summary", map[string]any{
		"count":  summary.Count,
		"min_ms": summary.MinMs,
		"max_ms": summary.MaxMs,
		"avg_ms": summary.AvgMs,
	})
	writeRunReport(cfg, log, endpoint, started, nil)
}

func runStress(cfg *config.Config, log *logger.Logger, presetID string, loopback bool) {
	params := resolveParams(cfg, log, presetID)

	endpoint := newEndpoint(cfg, log, loopback)
	if err := endpoint.Initialize(); err != nil {
		log.Error("initialize failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer endpoint.Close()

	sw := perf.Stopwatch{}
	sw.Start()
	stats := endpoint.StressTest(uint32(params.DurationMs), params.PacketSize)
	sw.Stop()

	started := time.Now().Add(-time.Duration(params.DurationMs) * time.Millisecond)
	log.Info("stress finished", map[string]any{
		"packets_sent":    stats.PacketsSent,
		"bytes_sent":      stats.BytesSent,
		"errors":          stats.Errors,
		"elapsed_ms":      sw.ElapsedMs(),
		"throughput_mbps": sw.ThroughputMbps(int(stats.BytesSent)),
	})
	writeRunReport(cfg, log, endpoint, started, nil)
}

func runSuite(ctx context.Context, cfg *config.Config, log *logger.Logger, loopback bool) {
	endpoint := newEndpoint(cfg, log, loopback)
	if err := endpoint.Initialize(); err != nil {
		log.Error("initialize failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer endpoint.Close()

	started := time.Now()
	summary := runner.Run(ctx, buildSuiteCases(endpoint), runner.Options{
		Workers:       cfg.Suite.Workers,
		StopOnFailure: cfg.Suite.StopOnFailure,
	}, log)
	writeRunReport(cfg, log, endpoint, started, &summary)

	if summary.Failed > 0 || summary.Errors > 0 {
		os.Exit(1)
	}
}

// buildSuiteCases assembles the built-in link checks. The endpoint is
// shared, so the cases are meant for a single worker unless the link
// tolerates interleaved frames.
func buildSuiteCases(endpoint *link.Endpoint) []runner.Case {
	return []runner.Case{
		{
			Name: "echo",
			Run: func(ctx context.Context) error {
				payload := []byte{0x01, 0x02, 0x03, 0x04}
				res := endpoint.SendAndReceive(payload)
				if !res.Success {
					return runner.Failf("no response: " + res.ErrorMessage)
				}
				return nil
			},
		},
		{
			Name: "burst",
			Run: func(ctx context.Context) error {
				frames := make([][]byte, 10)
				for i := range frames {
					frames[i] = bytes.Repeat([]byte{byte(i)}, 32)
				}
				if sent := endpoint.BurstSend(frames); sent != len(frames) {
					return runner.Failf(fmt.Sprintf("sent %d of %d frames", sent, len(frames)))
				}
				return nil
			},
		},
		{
			Name: "latency",
			Run: func(ctx context.Context) error {
				payload := bytes.Repeat([]byte{0xAA}, link.DefaultStressPacket)
				if latency := endpoint.MeasureLatency(payload); latency < 0 {
					return runner.Failf("round trip failed")
				}
				return nil
			},
		},
	}
}

func writeRunReport(
	cfg *config.Config,
	log *logger.Logger,
	endpoint *link.Endpoint,
	started time.Time,
	suite *runner.Summary,
) {
	r := report.Report{
		Interface:  endpoint.Interface(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Stats:      endpoint.Statistics(),
		Suite:      suite,
	}
	writer := report.NewWriter(cfg.Report.Dir, cfg.Report.Compress, log)
	if _, err := writer.Write(r); err != nil {
		log.Error("report write failed", map[string]any{"err": err.Error()})
	}
	report.Summarize(r, log)
}

// runDUT exercises the management plane: one echo round trip over the
// data port and, when requested, a CLI command over the control port.
func runDUT(cfg *config.Config, log *logger.Logger, cliCommand string) {
	conn := dut.New(dut.Config{
		IP:          cfg.DUT.IP,
		Port:        cfg.DUT.Port,
		Protocol:    dut.Protocol(cfg.DUT.Protocol),
		TimeoutMs:   cfg.DUT.TimeoutMs,
		RetryCount:  cfg.DUT.RetryCount,
		CLIPort:     cfg.DUT.CLIPort,
		CLIPrompt:   cfg.DUT.CLIPrompt,
		CLIUsername: cfg.DUT.CLIUsername,
		CLIPassword: config.ResolveSecret(cfg.DUT.CLIPassword),
	})
	if err := conn.Connect(); err != nil {
		log.Error("dut connect failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer conn.Disconnect()

	data, rtt, err := conn.SendAndReceive([]byte("ping"), 1024)
	if err != nil {
		log.Error("dut echo failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	log.Info("dut echo ok", map[string]any{
		"bytes":  len(data),
		"rtt_ms": float64(rtt) / float64(time.Millisecond),
	})

	if cliCommand == "" {
		return
	}
	if err := conn.ConnectCLI(); err != nil {
		log.Error("dut cli connect failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	output, err := conn.ExecuteCommand(cliCommand, cfg.DUT.TimeoutMs)
	if err != nil {
		log.Error("dut cli command failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	log.Info("dut cli output", map[string]any{"command": cliCommand, "output": output})
}

func runInterfaces(log *logger.Logger) {
	infos, err := platform.ListInterfaces()
	if err != nil {
		log.Error("list interfaces failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	out, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		log.Error("encode interfaces failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	fmt.Println(string(out))
}
