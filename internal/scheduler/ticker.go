package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

// Ticker wraps a gocron scheduler that fires a single tick job.
type Ticker struct {
	scheduler gocron.Scheduler
	interval  time.Duration
}

// NewTicker creates a ticker firing every interval. A nil clock uses the
// wall clock.
func NewTicker(interval time.Duration, clock clockwork.Clock) (*Ticker, error) {
	if interval <= 0 {
		return nil, ferrors.ValidationError("tick interval must be positive").
			WithContext("interval", interval.String()).
			Build()
	}
	var opts []gocron.SchedulerOption
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Ticker{scheduler: s, interval: interval}, nil
}

// Start registers fn as the tick job and starts the scheduler. A tick that
// is still running when the next one is due is skipped.
func (t *Ticker) Start(fn func()) error {
	_, err := t.scheduler.NewJob(
		gocron.DurationJob(t.interval),
		gocron.NewTask(fn),
		gocron.WithName("host-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick job: %w", err)
	}
	slog.Info("Starting tick scheduler", slog.Duration("interval", t.interval))
	t.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down and waits for a running tick to finish.
func (t *Ticker) Stop() error {
	slog.Info("Stopping tick scheduler")
	return t.scheduler.Shutdown()
}
