package config

import (
	"sync/atomic"

	"git.home.luguber.info/inful/gsit/internal/attach"
)

// Holder publishes the active configuration snapshot. Readers always see a
// complete, validated Config; reloads swap the whole snapshot.
type Holder struct {
	current atomic.Pointer[Config]
}

func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.Store(cfg)
	return h
}

// Load returns the active snapshot. Callers must not mutate it.
func (h *Holder) Load() *Config { return h.current.Load() }

func (h *Holder) Store(cfg *Config) {
	if cfg == nil {
		cfg = Defaults()
	}
	h.current.Store(cfg)
}

// Settings returns the registry settings of the active snapshot. It has the
// attach.SettingsFunc signature.
func (h *Holder) Settings() attach.Settings { return h.Load().Settings() }
