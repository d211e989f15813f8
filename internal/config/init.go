package config

import (
	"errors"
	"os"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

const exampleConfig = `# gsit configuration
version: "1.0"

attachments:
  # Show the "press sneak to get up" hint when a pose or crawl starts.
  custom_message: true
  # Repeat the hint two ticks later for clients that drop the first one.
  enhanced_compatibility: false
  center_block: true
  # Return players to where they stood before posing.
  get_up_return: false
  base_offset: 0.0
  seat_materials:
    OAK_STAIRS: 0.0
    WHITE_CARPET: 0.0625

host:
  server_version: "1.20.5"
  tick_interval: 50ms
  language: en
  world: world

permissions:
  admin:
    - "Kick.*"

messages: {}

monitoring:
  metrics:
    enabled: false
    address: ":9464"
    path: /metrics
  logging:
    level: info
    format: text

journal:
  enabled: false
  path: ":memory:"

nats:
  enabled: false
  url: ${NATS_URL}
  subject_prefix: gsit
  connect_retries: 3
  retry_backoff: exponential
  retry_initial: 500ms
  retry_max: 5s
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to inspect config path").
			WithContext("path", configPath).
			Build()
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
