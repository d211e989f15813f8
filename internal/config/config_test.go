package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/retry"
	"git.home.luguber.info/inful/gsit/internal/world"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gsit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Attachments.CustomMessage)
	assert.True(t, cfg.Attachments.CenterBlock)
	assert.False(t, cfg.Attachments.GetUpReturn)
	assert.Equal(t, "1.20.5", cfg.Host.ServerVersion)
	assert.Equal(t, 50*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, "en", cfg.Host.Language)
	assert.Equal(t, ":memory:", cfg.Journal.Path)
	assert.Equal(t, "gsit", cfg.NATS.SubjectPrefix)
	assert.Equal(t, slog.LevelInfo, cfg.Monitoring.Logging.SlogLevel())
	assert.False(t, cfg.Monitoring.Logging.JSON())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
attachments:
  custom_message: false
  enhanced_compatibility: true
  get_up_return: true
  base_offset: 0.25
  seat_materials:
    oak_stairs: 0.1
host:
  server_version: "1.19.4"
  tick_interval: 100ms
  language: de
permissions:
  alex: ["Kick.Pose"]
messages:
  Messages.action-pose-info: "Get up with sneak"
monitoring:
  logging:
    level: DEBUG
    format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Attachments.CustomMessage)
	assert.True(t, cfg.Attachments.CenterBlock, "unset keys keep their defaults")
	assert.Equal(t, 100*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, []string{"Kick.Pose"}, cfg.Permissions["alex"])
	assert.Equal(t, "Get up with sneak", cfg.Messages["Messages.action-pose-info"])
	assert.Equal(t, slog.LevelDebug, cfg.Monitoring.Logging.SlogLevel())
	assert.True(t, cfg.Monitoring.Logging.JSON())

	s := cfg.Settings()
	assert.False(t, s.CustomMessage)
	assert.True(t, s.EnhancedCompatibility)
	assert.True(t, s.GetUpReturn)
	assert.InDelta(t, 0.25, s.BaseOffset, 1e-9)
	assert.InDelta(t, 0.1, s.SeatMaterials[world.Material("OAK_STAIRS")], 1e-9)
}

func TestLoad_ExpandsAndOverridesFromEnvironment(t *testing.T) {
	t.Setenv("TEST_GSIT_LANG", "de")
	t.Setenv("GSIT_CUSTOM_MESSAGE", "false")
	t.Setenv("GSIT_TICK_INTERVAL", "20ms")
	t.Setenv("GSIT_NATS_ENABLED", "true")

	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nhost:\n  language: ${TEST_GSIT_LANG}\n"))
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Host.Language)
	assert.False(t, cfg.Attachments.CustomMessage)
	assert.Equal(t, 20*time.Millisecond, cfg.Host.TickInterval)
	assert.True(t, cfg.NATS.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: \"2.0\"\n"},
		{"server version", "version: \"1.0\"\nhost:\n  server_version: banana\n"},
		{"tick", "version: \"1.0\"\nhost:\n  tick_interval: -1s\n"},
		{"language", "version: \"1.0\"\nhost:\n  language: \"not a tag!\"\n"},
		{"log level", "version: \"1.0\"\nmonitoring:\n  logging:\n    level: loud\n"},
		{"log format", "version: \"1.0\"\nmonitoring:\n  logging:\n    format: xml\n"},
		{"nats url", "version: \"1.0\"\nnats:\n  enabled: true\n  url: \"\"\n"},
		{"nats backoff", "version: \"1.0\"\nnats:\n  retry_backoff: random\n"},
		{"nats retries", "version: \"1.0\"\nnats:\n  connect_retries: -2\n"},
		{"yaml", "version: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestNATSRetryPolicy(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nnats:\n  retry_backoff: Linear\n  retry_initial: 1s\n  retry_max: 3s\n  connect_retries: 4\n"))
	require.NoError(t, err)

	p := cfg.NATS.RetryPolicy()
	assert.Equal(t, retry.BackoffLinear, p.Mode)
	assert.Equal(t, 4, p.MaxRetries)
	assert.Equal(t, 3*time.Second, p.Delay(5))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Host, cfg.Host)
}

func TestInit(t *testing.T) {
	t.Setenv("NATS_URL", "nats://example:4222")
	path := filepath.Join(t.TempDir(), "gsit.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, []string{"Kick.*"}, cfg.Permissions["admin"])

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, Init(path, true))
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	assert.True(t, h.Settings().CustomMessage)

	next := Defaults()
	next.Attachments.CustomMessage = false
	h.Store(next)
	assert.Same(t, next, h.Load())
	assert.False(t, h.Settings().CustomMessage)
}
