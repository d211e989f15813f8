// Package config loads the gsit YAML configuration, applies defaults and
// environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/gsit/internal/attach"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/retry"
	"git.home.luguber.info/inful/gsit/internal/world"
)

const (
	// DefaultPath is the configuration file looked up when none is given.
	DefaultPath = "gsit.yaml"
	// CurrentVersion is the only supported configuration schema version.
	CurrentVersion = "1.0"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GSIT_"
)

// Config represents the application configuration.
type Config struct {
	Version     string              `yaml:"version"`
	Attachments AttachmentsConfig   `yaml:"attachments"`
	Host        HostConfig          `yaml:"host"`
	Permissions map[string][]string `yaml:"permissions,omitempty"`
	Messages    map[string]string   `yaml:"messages,omitempty"`
	Monitoring  MonitoringConfig    `yaml:"monitoring"`
	Journal     JournalConfig       `yaml:"journal"`
	NATS        NATSConfig          `yaml:"nats"`
}

// AttachmentsConfig holds the values the registries read per operation.
type AttachmentsConfig struct {
	CustomMessage         bool               `yaml:"custom_message" env:"CUSTOM_MESSAGE"`
	EnhancedCompatibility bool               `yaml:"enhanced_compatibility" env:"ENHANCED_COMPATIBILITY"`
	CenterBlock           bool               `yaml:"center_block" env:"CENTER_BLOCK"`
	GetUpReturn           bool               `yaml:"get_up_return" env:"GET_UP_RETURN"`
	BaseOffset            float64            `yaml:"base_offset" env:"BASE_OFFSET"`
	SeatMaterials         map[string]float64 `yaml:"seat_materials,omitempty"`
}

// HostConfig describes the simulated host.
type HostConfig struct {
	ServerVersion string        `yaml:"server_version" env:"SERVER_VERSION"`
	TickInterval  time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	Language      string        `yaml:"language" env:"LANGUAGE"`
	World         string        `yaml:"world" env:"WORLD"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Address string `yaml:"address" env:"METRICS_ADDRESS"`
	Path    string `yaml:"path" env:"METRICS_PATH"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// JournalConfig controls the SQLite session journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" env:"JOURNAL_ENABLED"`
	Path    string `yaml:"path" env:"JOURNAL_PATH"`
}

// NATSConfig controls mirroring notifications to NATS.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled" env:"NATS_ENABLED"`
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
	// Initial connection attempts; reconnects after that are handled by the client.
	ConnectRetries int           `yaml:"connect_retries" env:"NATS_CONNECT_RETRIES"`
	RetryBackoff   string        `yaml:"retry_backoff" env:"NATS_RETRY_BACKOFF"`
	RetryInitial   time.Duration `yaml:"retry_initial" env:"NATS_RETRY_INITIAL"`
	RetryMax       time.Duration `yaml:"retry_max" env:"NATS_RETRY_MAX"`
}

// RetryPolicy is the backoff used for the initial connection.
func (n NATSConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(retry.BackoffMode(n.RetryBackoff), n.RetryInitial, n.RetryMax, n.ConnectRetries)
}

// Defaults returns a configuration with every default applied.
func Defaults() *Config {
	return &Config{
		Version: CurrentVersion,
		Attachments: AttachmentsConfig{
			CustomMessage: true,
			CenterBlock:   true,
		},
		Host: HostConfig{
			ServerVersion: "1.20.5",
			TickInterval:  50 * time.Millisecond,
			Language:      "en",
			World:         "world",
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Address: ":9464", Path: "/metrics"},
			Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
		},
		Journal: JournalConfig{Path: ":memory:"},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			SubjectPrefix:  "gsit",
			ConnectRetries: 3,
			RetryBackoff:   string(retry.BackoffExponential),
			RetryInitial:   500 * time.Millisecond,
			RetryMax:       5 * time.Second,
		},
	}
}

// Load reads configPath, expands ${VAR} references, applies defaults,
// environment overrides and validation.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but falls back to defaults (plus
// environment overrides) when the file does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		loadEnvFiles()
		cfg := Defaults()
		if err := finish(cfg); err != nil {
			return nil, err
		}
		slog.Debug("No configuration file, using defaults", slog.String("path", configPath))
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes YAML content on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	if err := ApplyEnv(cfg); err != nil {
		return err
	}
	cfg.normalize()
	return cfg.Validate()
}

// ApplyEnv overrides scalar settings from GSIT_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid environment override").Build()
	}
	return nil
}

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the environment win.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
	}
}

func (c *Config) normalize() {
	d := Defaults()
	c.Version = strings.TrimSpace(c.Version)
	if c.Host.Language == "" {
		c.Host.Language = d.Host.Language
	}
	if c.Host.World == "" {
		c.Host.World = d.Host.World
	}
	if c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = d.Monitoring.Metrics.Path
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = d.NATS.SubjectPrefix
	}
	if c.NATS.RetryBackoff == "" {
		c.NATS.RetryBackoff = d.NATS.RetryBackoff
	}
	c.Monitoring.Logging.Level = strings.ToLower(strings.TrimSpace(c.Monitoring.Logging.Level))
	c.Monitoring.Logging.Format = strings.ToLower(strings.TrimSpace(c.Monitoring.Logging.Format))
}

// Settings converts the attachment section into registry settings.
// Material names are upper-cased.
func (c *Config) Settings() attach.Settings {
	a := c.Attachments
	materials := make(map[world.Material]float64, len(a.SeatMaterials))
	for name, offset := range a.SeatMaterials {
		materials[world.Material(strings.ToUpper(name))] = offset
	}
	return attach.Settings{
		CustomMessage:         a.CustomMessage,
		EnhancedCompatibility: a.EnhancedCompatibility,
		CenterBlock:           a.CenterBlock,
		GetUpReturn:           a.GetUpReturn,
		BaseOffset:            a.BaseOffset,
		SeatMaterials:         materials,
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("config(version=%s server=%s lang=%s)", c.Version, c.Host.ServerVersion, c.Host.Language)
}
