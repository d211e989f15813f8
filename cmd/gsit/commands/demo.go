package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/config"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/host"
)

// DemoCmd implements the 'demo' command.
type DemoCmd struct {
	Step time.Duration `help:"Simulated time between scripted steps" default:"2s"`
}

func (d *DemoCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return err
	}
	return RunDemo(context.Background(), cfg, d.Step, os.Stdout, g.Logger)
}

type demoStep struct {
	title string
	lines []string
}

var demoScript = []demoStep{
	{"A single pose", []string{
		"block 0 64 0 oak_stairs",
		"join Steve 0.5 65 0.5",
		"pose Steve 0 64 0 sitting",
		"who 0 64 0",
		"unpose Steve get_up",
		"who 0 64 0",
		"unpose Steve get_up",
	}},
	{"Stacked poses and kicks", []string{
		"join Alex 0.3 65 0.7",
		"join Griefer 4 65 4",
		"join Op 6 65 6",
		"pose Steve 0 64 0",
		"pose Alex 0 64 0 lying",
		"kick Griefer 0 64 0",
		"who 0 64 0",
		"kick Op 0 64 0",
		"who 0 64 0",
	}},
	{"Crawling with a damage veto", []string{
		"crawl Alex",
		"crawl Alex",
		"uncrawl Alex damage",
		"uncrawl Alex death",
	}},
	{"Breaking an occupied block", []string{
		"block 3 64 3 stone_slab",
		"join Sam 3.5 65 3.5",
		"pose Sam 3 64 3 belly_flop",
		"block 3 64 3 air",
		"list",
	}},
	{"Usage", []string{
		"stats",
	}},
}

// RunDemo plays the scripted scenarios against a fresh host driven by a
// fake clock, so lifetimes in the usage stats are exact.
func RunDemo(ctx context.Context, cfg *config.Config, step time.Duration, out io.Writer, logger *slog.Logger) error {
	demoCfg := *cfg
	demoCfg.Permissions = map[string][]string{"Op": {"Kick.*"}}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	h, err := host.New(host.Options{
		Config: config.NewHolder(&demoCfg),
		Clock:  clock,
		Logger: logger,
		Output: out,
	})
	if err != nil {
		return err
	}
	events.Subscribe(h.Bus(), func(_ context.Context, e *events.PreStopCrawl) {
		if e.Reason == attach.ReasonDamage {
			e.SetCancelled(true)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- h.Run(ctx) }()
	defer func() {
		cancel()
		<-loopDone
	}()

	for _, s := range demoScript {
		_, _ = fmt.Fprintf(out, "\n== %s\n", s.title)
		for _, line := range s.lines {
			_, _ = fmt.Fprintf(out, "> %s\n", line)
			if err := h.Execute(ctx, line); err != nil {
				printConsoleError(out, err)
			}
			clock.Advance(step)
		}
	}
	return nil
}
