package config

import (
	"math"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/gsit/internal/capability"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/retry"
)

// Validate checks the configuration and returns the first problem found as
// a classified config error.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("version", "unsupported configuration version", c.Version)
	}
	if _, err := capability.Parse(c.Host.ServerVersion); err != nil {
		return invalid("host.server_version", "invalid server version", c.Host.ServerVersion)
	}
	if c.Host.TickInterval <= 0 {
		return invalid("host.tick_interval", "tick interval must be positive", c.Host.TickInterval.String())
	}
	if _, err := language.Parse(c.Host.Language); err != nil {
		return invalid("host.language", "invalid language tag", c.Host.Language)
	}
	if math.IsNaN(c.Attachments.BaseOffset) || math.IsInf(c.Attachments.BaseOffset, 0) {
		return invalid("attachments.base_offset", "offset must be finite", c.Attachments.BaseOffset)
	}
	for material, offset := range c.Attachments.SeatMaterials {
		if material == "" || math.IsNaN(offset) || math.IsInf(offset, 0) {
			return invalid("attachments.seat_materials", "invalid seat material offset", material)
		}
	}
	if _, ok := logLevels[LogLevel(c.Monitoring.Logging.Level)]; !ok {
		return invalid("monitoring.logging.level", "unknown log level", c.Monitoring.Logging.Level)
	}
	switch LogFormat(c.Monitoring.Logging.Format) {
	case LogFormatJSON, LogFormatText:
	default:
		return invalid("monitoring.logging.format", "unknown log format", c.Monitoring.Logging.Format)
	}
	if c.Monitoring.Metrics.Enabled && c.Monitoring.Metrics.Address == "" {
		return invalid("monitoring.metrics.address", "metrics address is required when metrics are enabled", "")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return invalid("journal.path", "journal path is required when the journal is enabled", "")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return invalid("nats.url", "NATS url is required when NATS is enabled", "")
	}
	if _, err := retry.ParseBackoffMode(c.NATS.RetryBackoff); err != nil {
		return invalid("nats.retry_backoff", "unknown backoff mode", c.NATS.RetryBackoff)
	}
	if c.NATS.ConnectRetries < 0 {
		return invalid("nats.connect_retries", "retries cannot be negative", c.NATS.ConnectRetries)
	}
	return nil
}

func invalid(field, message string, value any) error {
	return ferrors.ConfigError(message).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
