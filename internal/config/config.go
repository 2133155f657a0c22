package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Link          LinkConfig          `mapstructure:"link"`
	DUT           DUTConfig           `mapstructure:"dut"`
	Suite         SuiteConfig         `mapstructure:"suite"`
	API           APIConfig           `mapstructure:"api"`
	Security      SecurityConfig      `mapstructure:"security"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	MetricsExport MetricsExportConfig `mapstructure:"metrics_export"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Report        ReportConfig        `mapstructure:"report"`
	Presets       PresetsConfig       `mapstructure:"presets"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type LinkConfig struct {
	Interface     string `mapstructure:"interface"`
	TimeoutMs     uint32 `mapstructure:"timeout_ms"`
	MaxPacketSize int    `mapstructure:"max_packet_size"`
}

type DUTConfig struct {
	IP          string `mapstructure:"ip"`
	Port        int    `mapstructure:"port"`
	Protocol    string `mapstructure:"protocol"`
	TimeoutMs   int    `mapstructure:"timeout_ms"`
	RetryCount  int    `mapstructure:"retry_count"`
	CLIPort     int    `mapstructure:"cli_port"`
	CLIPrompt   string `mapstructure:"cli_prompt"`
	CLIUsername string `mapstructure:"cli_username"`
	CLIPassword string `mapstructure:"cli_password"`
}

type SuiteConfig struct {
	Workers       int  `mapstructure:"workers"`
	StopOnFailure bool `mapstructure:"stop_on_failure"`
}

type APIConfig struct {
	Address   string `mapstructure:"address"`
	PprofPath string `mapstructure:"pprof_path"`
	H3        bool   `mapstructure:"h3"`
	H3Address string `mapstructure:"h3_address"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`
}

type SecurityConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RequireAuth bool          `mapstructure:"require_auth"`
	Tokens      []TokenConfig `mapstructure:"tokens"`
}

type TokenConfig struct {
	Value string `mapstructure:"value"`
	Role  string `mapstructure:"role"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

type MetricsExportConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RemoteWriteURL  string `mapstructure:"remote_write_url"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	BearerToken     string `mapstructure:"bearer_token"`
}

type AlertsConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	IntervalSeconds    int     `mapstructure:"interval_seconds"`
	ErrorsThreshold    uint64  `mapstructure:"errors_threshold"`
	TimeoutsThreshold  uint64  `mapstructure:"timeouts_threshold"`
	LatencyThresholdUs float64 `mapstructure:"latency_threshold_us"`
	HistoryLimit       int     `mapstructure:"history_limit"`
}

type ObservabilityConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TraceLimit int  `mapstructure:"trace_limit"`
}

type ReportConfig struct {
	Dir      string `mapstructure:"dir"`
	Compress bool   `mapstructure:"compress"`
}

type PresetsConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	LokiURL string `mapstructure:"loki_url"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func LoadFromBytes(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Link.TimeoutMs == 0 {
		cfg.Link.TimeoutMs = 1000
	}
	if cfg.Link.MaxPacketSize == 0 {
		cfg.Link.MaxPacketSize = 4096
	}
	if cfg.DUT.IP == "" {
		cfg.DUT.IP = "192.168.1.100"
	}
	if cfg.DUT.Port == 0 {
		cfg.DUT.Port = 5000
	}
	if cfg.DUT.Protocol == "" {
		cfg.DUT.Protocol = "tcp"
	}
	if cfg.DUT.TimeoutMs == 0 {
		cfg.DUT.TimeoutMs = 1000
	}
	if cfg.DUT.RetryCount == 0 {
		cfg.DUT.RetryCount = 3
	}
	if cfg.DUT.CLIPort == 0 {
		cfg.DUT.CLIPort = 23
	}
	if cfg.DUT.CLIPrompt == "" {
		cfg.DUT.CLIPrompt = "DUT>"
	}
	if cfg.Suite.Workers == 0 {
		cfg.Suite.Workers = 1
	}
	if cfg.API.Address == "" {
		cfg.API.Address = ":8080"
	}
	if cfg.API.H3Address == "" {
		cfg.API.H3Address = cfg.API.Address
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.MetricsExport.IntervalSeconds == 0 {
		cfg.MetricsExport.IntervalSeconds = 10
	}
	if cfg.Alerts.IntervalSeconds == 0 {
		cfg.Alerts.IntervalSeconds = 10
	}
	if cfg.Alerts.HistoryLimit == 0 {
		cfg.Alerts.HistoryLimit = 1000
	}
	if cfg.Observability.TraceLimit == 0 {
		cfg.Observability.TraceLimit = 1000
	}
	if cfg.Report.Dir == "" {
		cfg.Report.Dir = "reports"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validate(cfg *Config) error {
	if cfg.Link.MaxPacketSize < 0 {
		return fmt.Errorf("link.max_packet_size must not be negative")
	}
	if cfg.DUT.Port < 1 || cfg.DUT.Port > 65535 {
		return fmt.Errorf("dut.port must be in 1..65535")
	}
	switch cfg.DUT.Protocol {
	case "tcp", "udp":
	default:
		return fmt.Errorf("dut.protocol must be tcp or udp")
	}
	if cfg.DUT.RetryCount < 0 {
		return fmt.Errorf("dut.retry_count must not be negative")
	}
	if cfg.Suite.Workers < 1 {
		return fmt.Errorf("suite.workers must be at least 1")
	}
	if cfg.API.H3 && (cfg.API.CertFile == "" || cfg.API.KeyFile == "") {
		return fmt.Errorf("api.cert_file and api.key_file are required when h3 is enabled")
	}
	return nil
}
