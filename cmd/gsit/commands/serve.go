package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/gsit/internal/config"
	"git.home.luguber.info/inful/gsit/internal/eventstore"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/host"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/metrics"
	"git.home.luguber.info/inful/gsit/internal/natsbridge"
	"git.home.luguber.info/inful/gsit/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Watch     bool `help:"Reload the configuration file when it changes" default:"true" negatable:""`
	ExitOnEOF bool `name:"exit-on-eof" help:"Stop serving when console input ends"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunServe(ctx, ServeOptions{
		Config:     cfg,
		ConfigPath: root.Config,
		Watch:      s.Watch,
		ExitOnEOF:  s.ExitOnEOF,
		In:         os.Stdin,
		Out:        os.Stdout,
		Logger:     g.Logger,
	})
}

// ServeOptions carries everything RunServe needs besides the context.
type ServeOptions struct {
	Config     *config.Config
	ConfigPath string
	Watch      bool
	ExitOnEOF  bool
	In         io.Reader
	Out        io.Writer
	Logger     *slog.Logger
}

// RunServe wires the optional metrics endpoint, journal and NATS bridge
// around a host, drives its ticks and feeds it console lines until ctx ends.
func RunServe(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Monitoring.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(cfg.Monitoring.Metrics, reg, logger)
		defer stop()
	}

	var (
		store      *eventstore.SQLiteStore
		projection *eventstore.SessionProjection
	)
	if cfg.Journal.Enabled {
		var err error
		if store, err = eventstore.NewSQLiteStore(cfg.Journal.Path); err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close journal store", logfields.Error(err))
			}
		}()
		projection = eventstore.NewSessionProjection(store)
		if err := projection.Rebuild(ctx); err != nil {
			return err
		}
	}

	holder := config.NewHolder(cfg)
	h, err := host.New(host.Options{
		Config:   holder,
		Recorder: recorder,
		Logger:   logger,
		Output:   opts.Out,
		History:  projection,
	})
	if err != nil {
		return err
	}

	if store != nil {
		journal := eventstore.NewJournal(store, projection, nil, logger, 0)
		journal.Subscribe(h.Bus())
		defer journal.Close()
	}

	if cfg.NATS.Enabled {
		bridge, err := natsbridge.Connect(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.NATS.RetryPolicy(), logger)
		if err != nil {
			return err
		}
		bridge.Subscribe(h.Bus())
		defer func() {
			if err := bridge.Close(); err != nil {
				logger.Warn("Failed to drain NATS connection", logfields.Error(err))
			}
		}()
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- h.Run(ctx) }()

	ticker, err := scheduler.NewTicker(cfg.Host.TickInterval, nil)
	if err != nil {
		cancel()
		<-loopDone
		return err
	}
	if err := ticker.Start(h.Tick); err != nil {
		cancel()
		<-loopDone
		return err
	}
	defer func() {
		if err := ticker.Stop(); err != nil {
			logger.Warn("Failed to stop tick scheduler", logfields.Error(err))
		}
	}()

	if opts.Watch && opts.ConfigPath != "" {
		if _, statErr := os.Stat(opts.ConfigPath); statErr == nil {
			w, err := config.NewWatcher(opts.ConfigPath, holder, h.ApplyConfig, 0)
			if err != nil {
				logger.Warn("Config watcher unavailable", logfields.Error(err))
			} else if err := w.Start(ctx); err != nil {
				logger.Warn("Config watcher unavailable", logfields.Error(err))
			} else {
				defer func() { _ = w.Stop() }()
			}
		}
	}

	if opts.In != nil {
		go func() {
			runConsole(ctx, h, opts.In, opts.Out, logger)
			if opts.ExitOnEOF {
				cancel()
			}
		}()
	}

	logger.Info("Serving", logfields.Path(opts.ConfigPath))
	<-ctx.Done()
	if err := <-loopDone; err != nil {
		return err
	}
	logger.Info("Host stopped")
	return nil
}

// runConsole executes one command per input line until the input ends or
// the host stops.
func runConsole(ctx context.Context, h *host.Host, in io.Reader, out io.Writer, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := h.Execute(ctx, scanner.Text())
		if errors.Is(err, host.ErrStopped) || ctx.Err() != nil {
			return
		}
		if err != nil {
			printConsoleError(out, err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Console input failed", logfields.Error(err))
	}
}

// printConsoleError prints the message of a classified error without its
// category prefix.
func printConsoleError(out io.Writer, err error) {
	if ce, ok := ferrors.AsClassified(err); ok {
		_, _ = fmt.Fprintf(out, "error: %s\n", ce.Message())
		return
	}
	_, _ = fmt.Fprintf(out, "error: %v\n", err)
}

func serveMetrics(cfg config.MetricsConfig, reg *prom.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: cfg.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", slog.String("address", cfg.Address), logfields.Path(cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
}
