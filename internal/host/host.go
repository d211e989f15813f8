// Package host is the single top-level context of a gsit process. It owns the
// bus, the registries, the scheduler and every collaborator, and runs all
// registry work on one goroutine.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/capability"
	"git.home.luguber.info/inful/gsit/internal/config"
	"git.home.luguber.info/inful/gsit/internal/crawl"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/eventstore"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/messages"
	"git.home.luguber.info/inful/gsit/internal/metrics"
	"git.home.luguber.info/inful/gsit/internal/permission"
	"git.home.luguber.info/inful/gsit/internal/pose"
	"git.home.luguber.info/inful/gsit/internal/scheduler"
	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

// ErrStopped is returned for work submitted after the loop exited.
var ErrStopped = ferrors.HostError("host loop is not running").Build()

const workBuffer = 64

// Options configures a Host. Config is required.
type Options struct {
	Config   *config.Holder
	Clock    clockwork.Clock
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Output receives console replies and player messages.
	Output io.Writer
	// History serves the "history" console command when set.
	History *eventstore.SessionProjection
}

type Host struct {
	cfg      *config.Holder
	clock    clockwork.Clock
	logger   *slog.Logger
	bus      *events.Bus
	world    *sim.World
	queue    *scheduler.Queue
	grants   *permission.Grants
	messages *messages.Service
	version  capability.Check
	crawls   *crawl.Registry
	poses    *pose.Registry
	history  *eventstore.SessionProjection

	outMu sync.Mutex
	out   io.Writer

	work    chan func()
	running atomic.Bool
	skipped atomic.Uint64
	stopped chan struct{}
}

func New(opts Options) (*Host, error) {
	if opts.Config == nil {
		return nil, ferrors.ConfigError("host requires a configuration").Build()
	}
	cfg := opts.Config.Load()
	h := &Host{
		cfg:     opts.Config,
		clock:   opts.Clock,
		logger:  opts.Logger,
		bus:     events.NewBus(),
		world:   sim.NewWorld(cfg.Host.World),
		grants:  permission.NewGrants(cfg.Permissions),
		history: opts.History,
		out:     opts.Output,
		work:    make(chan func(), workBuffer),
		stopped: make(chan struct{}),
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.out == nil {
		h.out = io.Discard
	}
	h.queue = scheduler.NewQueue(h.logger)

	version, err := capability.ParseCheck(cfg.Host.ServerVersion)
	if err != nil {
		return nil, err
	}
	h.version = version

	h.messages, err = messages.New(cfg.Host.Language, cfg.Messages, messages.SinkFunc(h.deliver))
	if err != nil {
		return nil, err
	}

	h.crawls = crawl.NewRegistry(crawl.Options{
		Bus:          h.bus,
		Factory:      h.world,
		Capabilities: h.version,
		Messenger:    h.messages,
		Settings:     opts.Config.Settings,
		Clock:        h.clock,
		Recorder:     opts.Recorder,
		Logger:       h.logger,
	})
	h.poses = pose.NewRegistry(pose.Options{
		Bus:          h.bus,
		Factory:      h.world,
		Locator:      h.world,
		Terrain:      h.world,
		Capabilities: h.version,
		Permissions:  h.grants,
		Messenger:    h.messages,
		Scheduler:    h.queue,
		Settings:     opts.Config.Settings,
		Clock:        h.clock,
		Recorder:     opts.Recorder,
		Logger:       h.logger,
	})

	h.logger.Info("Host initialized",
		slog.String("server_version", version.Version().String()),
		slog.Bool("crawl_available", h.crawls.IsAvailable()),
		slog.Bool("pose_available", h.poses.IsAvailable()))
	return h, nil
}

// Bus is the notification bus. Subscribe before Run.
func (h *Host) Bus() *events.Bus { return h.bus }

// The accessors below are only safe to use from work run by Do.
func (h *Host) World() *sim.World           { return h.world }
func (h *Host) Crawls() *crawl.Registry     { return h.crawls }
func (h *Host) Poses() *pose.Registry       { return h.poses }
func (h *Host) Queue() *scheduler.Queue     { return h.queue }
func (h *Host) Messages() *messages.Service { return h.messages }

// Run executes submitted work until ctx is cancelled, then removes every pose
// and crawl with the plugin reason and returns.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return ferrors.HostError("host loop already started").Build()
	}
	defer close(h.stopped)

	h.logger.Info("Host loop started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			h.logger.Info("Host loop stopped")
			return nil
		case fn := <-h.work:
			h.exec(fn)
		}
	}
}

func (h *Host) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered panic in host loop", slog.Any("panic", r))
		}
	}()
	fn()
}

func (h *Host) shutdown() {
	ctx := context.Background()
	h.poses.RemoveAll(ctx, attach.ReasonPlugin)
	h.crawls.StopAll(ctx, attach.ReasonPlugin)
	h.bus.Close()
}

// Do runs fn on the loop and waits for it to finish.
func (h *Host) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case h.work <- task:
	case <-h.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-h.stopped:
		// The loop may have run the task just before stopping.
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick queues one scheduler advance without waiting. Ticks are skipped while
// the loop is saturated. Safe to call from any goroutine.
func (h *Host) Tick() {
	select {
	case h.work <- func() { h.queue.Advance() }:
	default:
		n := h.skipped.Add(1)
		h.logger.Debug("Skipping tick, host loop busy", logfields.Skipped(n))
	}
}

// SkippedTicks counts ticks dropped because the loop was busy.
func (h *Host) SkippedTicks() uint64 { return h.skipped.Load() }

// ApplyConfig updates the reloadable collaborators for next. Server version
// and world are fixed for the lifetime of the host.
func (h *Host) ApplyConfig(ctx context.Context, next *config.Config) error {
	var err error
	if doErr := h.Do(ctx, func() {
		if err = h.messages.Reload(next.Host.Language, next.Messages); err != nil {
			return
		}
		h.grants.Replace(next.Permissions)
	}); doErr != nil {
		return doErr
	}
	return err
}

func (h *Host) deliver(p world.Player, text string) {
	h.printf("[%s] %s\n", p.Name(), text)
}

func (h *Host) printf(format string, args ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	_, _ = fmt.Fprintf(h.out, format, args...)
}
