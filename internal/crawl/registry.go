// Package crawl tracks players that are crawling. A player holds at most one
// crawl; starting and stopping go through cancellable pre-events on the
// notification bus and are accounted in the usage counter.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/metrics"
	"git.home.luguber.info/inful/gsit/internal/usage"
	"git.home.luguber.info/inful/gsit/internal/world"
)

const kind = string(attach.KindCrawl)

// Options wires the registry to its collaborators. Bus, Factory and
// Capabilities are required; the rest have usable defaults.
type Options struct {
	Bus          *events.Bus
	Factory      attach.Factory
	Capabilities attach.Capabilities
	Messenger    attach.Messenger
	Settings     attach.SettingsFunc
	Clock        clockwork.Clock
	Recorder     metrics.Recorder
	Logger       *slog.Logger
}

// Registry owns every active crawl. It must only be used from the host loop.
type Registry struct {
	bus       *events.Bus
	factory   attach.Factory
	messenger attach.Messenger
	settings  attach.SettingsFunc
	clock     clockwork.Clock
	recorder  metrics.Recorder
	logger    *slog.Logger

	available bool
	crawls    []*attach.Crawl
	usage     *usage.Counter
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		bus:       opts.Bus,
		factory:   opts.Factory,
		messenger: opts.Messenger,
		settings:  opts.Settings,
		clock:     opts.Clock,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
	if r.settings == nil {
		r.settings = attach.StaticSettings(attach.Settings{})
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.recorder == nil {
		r.recorder = metrics.NoopRecorder{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With(logfields.Kind(kind))
	r.usage = usage.NewCounter(attach.KindCrawl, r.recorder)
	r.available = opts.Capabilities != nil && opts.Capabilities.Supports(attach.MinimumMajor, attach.MinimumMinor)
	return r
}

// IsAvailable reports whether the host supports crawling. Decided once at construction.
func (r *Registry) IsAvailable() bool { return r.available }

// ListAll returns a snapshot of the active crawls in start order.
func (r *Registry) ListAll() []*attach.Crawl { return slices.Clone(r.crawls) }

func (r *Registry) IsActive(id world.PlayerID) bool { return r.Get(id) != nil }

// Get returns the player's crawl, or nil.
func (r *Registry) Get(id world.PlayerID) *attach.Crawl {
	if i := r.indexOf(id); i >= 0 {
		return r.crawls[i]
	}
	return nil
}

func (r *Registry) indexOf(id world.PlayerID) int {
	return slices.IndexFunc(r.crawls, func(c *attach.Crawl) bool { return c.Player().ID() == id })
}

// Start puts player into a crawl. Expected refusals are returned as
// attach.ErrAlreadyActive, attach.ErrVetoed or attach.ErrMaterializeFailed and
// leave no trace in the registry.
func (r *Registry) Start(ctx context.Context, player world.Player) (*attach.Crawl, error) {
	log := r.logger.With(logfields.Player(player.ID().String()), logfields.PlayerName(player.Name()))

	if r.IsActive(player.ID()) {
		return nil, attach.ErrAlreadyActive.WithContext("player", player.Name())
	}

	pre := &events.PreCrawl{Subject: player}
	if err := r.bus.Publish(ctx, pre); err != nil {
		return nil, fmt.Errorf("publish pre-crawl: %w", err)
	}
	if pre.Cancelled() {
		log.Debug("Crawl vetoed")
		r.recorder.IncRejection(kind, metrics.CauseVetoed)
		return nil, attach.ErrVetoed.WithContext("player", player.Name())
	}

	if r.settings().CustomMessage && r.messenger != nil {
		r.messenger.SendTransient(player, attach.MessageCrawlInfo)
	}

	marker, err := r.factory.MaterializeCrawl(player)
	if err != nil {
		log.Warn("Crawl could not be materialized", logfields.Error(err))
		r.recorder.IncRejection(kind, metrics.CauseMaterializeFailed)
		return nil, fmt.Errorf("%w: %w", attach.ErrMaterializeFailed, err)
	}

	c := attach.NewCrawl(player, marker, r.clock.Now())
	r.crawls = append(r.crawls, c)
	r.usage.Activated()
	r.recorder.SetActive(kind, len(r.crawls))

	if err := r.bus.Publish(ctx, &events.CrawlStarted{Crawl: c}); err != nil {
		log.Warn("Failed to publish crawl notification", logfields.Error(err))
	}
	log.Info("Crawl started")
	return c, nil
}

// Stop ends the player's crawl. It returns true when the crawl was stopped or
// none was active, and false when a subscriber vetoed a cancellable reason.
func (r *Registry) Stop(ctx context.Context, id world.PlayerID, reason attach.StopReason) bool {
	c := r.Get(id)
	if c == nil {
		return true
	}
	log := r.logger.With(logfields.Player(id.String()), logfields.Reason(reason.String()))

	pre := &events.PreStopCrawl{Crawl: c, Reason: reason}
	if err := r.bus.Publish(ctx, pre); err != nil {
		log.Warn("Failed to publish pre-stop notification", logfields.Error(err))
	}
	if pre.Cancelled() {
		if reason.Cancellable() {
			log.Debug("Crawl stop vetoed")
			r.recorder.IncStop(kind, reason.String(), true)
			return false
		}
		log.Debug("Ignoring veto for forced stop")
	}

	r.crawls = slices.DeleteFunc(r.crawls, func(other *attach.Crawl) bool { return other == c })
	r.factory.DestroyMarker(c.Marker())
	r.recorder.SetActive(kind, len(r.crawls))

	if err := r.bus.Publish(ctx, &events.CrawlStopped{Crawl: c, Reason: reason}); err != nil {
		log.Warn("Failed to publish stop notification", logfields.Error(err))
	}

	lifetime := c.Lifetime(r.clock.Now())
	r.usage.Completed(lifetime)
	r.recorder.IncStop(kind, reason.String(), false)
	log.Info("Crawl stopped", logfields.Duration(lifetime))
	return true
}

// StopAll stops every tracked crawl one at a time. A veto for one player does
// not prevent the others from stopping.
func (r *Registry) StopAll(ctx context.Context, reason attach.StopReason) {
	for _, c := range r.ListAll() {
		r.Stop(ctx, c.Player().ID(), reason)
	}
}

func (r *Registry) UsageCount() int       { return r.usage.Count() }
func (r *Registry) UsageSeconds() int64   { return r.usage.Seconds() }
func (r *Registry) UsageNanos() int64     { return r.usage.ActiveNanos() }
func (r *Registry) Usage() usage.Snapshot { return r.usage.Snapshot() }
func (r *Registry) ResetUsageStats()      { r.usage.Reset() }
