// Package usage keeps the per-registry usage counters: how many states were
// activated and how long completed states were active in total.
package usage

import (
	"time"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/metrics"
)

// Counter accumulates activation count and cumulative active time for one
// attachment kind. Both values only reset through Reset. Counter is used
// from the host loop only and is not safe for concurrent use.
type Counter struct {
	kind        attach.Kind
	recorder    metrics.Recorder
	activations int
	activeNanos int64
}

func NewCounter(kind attach.Kind, recorder metrics.Recorder) *Counter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Counter{kind: kind, recorder: recorder}
}

// Activated records one successful start.
func (c *Counter) Activated() {
	c.activations++
	c.recorder.IncActivation(string(c.kind))
}

// Completed adds the lifetime of a stopped state. Negative lifetimes are
// clamped to zero so the total never decreases.
func (c *Counter) Completed(lifetime time.Duration) {
	if lifetime < 0 {
		lifetime = 0
	}
	c.activeNanos += lifetime.Nanoseconds()
	c.recorder.ObserveLifetime(string(c.kind), lifetime)
}

func (c *Counter) Count() int         { return c.activations }
func (c *Counter) ActiveNanos() int64 { return c.activeNanos }

// Seconds is the cumulative active time truncated to whole seconds.
func (c *Counter) Seconds() int64 { return c.activeNanos / int64(time.Second) }

// Reset zeroes both counters.
func (c *Counter) Reset() {
	c.activations = 0
	c.activeNanos = 0
}

// Snapshot is a point-in-time copy of a counter for reporting.
type Snapshot struct {
	Kind        attach.Kind `json:"kind"`
	Count       int         `json:"count"`
	ActiveNanos int64       `json:"active_nanos"`
	Seconds     int64       `json:"seconds"`
}

func (c *Counter) Snapshot() Snapshot {
	return Snapshot{Kind: c.kind, Count: c.activations, ActiveNanos: c.activeNanos, Seconds: c.Seconds()}
}
