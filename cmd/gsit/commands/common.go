package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/gsit/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gsit.yaml" env:"GSIT_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve ServeCmd `cmd:"" help:"Run the host loop with a console on stdin"`
	Demo  DemoCmd  `cmd:"" help:"Run the example crawl and pose scenarios"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. The configured
// level and format apply when the config file can be read.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logging := config.Defaults().Monitoring.Logging
	if cfg, err := config.LoadOrDefault(c.Config); err == nil {
		logging = cfg.Monitoring.Logging
	}
	slog.SetDefault(NewLogger(logging, c.Verbose, os.Stderr))
	return nil
}

// NewLogger builds the process logger. --verbose always wins over the
// configured level.
func NewLogger(logging config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logging.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if logging.JSON() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
