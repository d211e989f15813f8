// Package scheduler runs delayed work on the host loop. Queue holds tasks
// keyed by host tick; Ticker drives Advance at a fixed interval.
package scheduler

import (
	"cmp"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/world"
)

type entry struct {
	due   uint64
	seq   uint64
	task  func()
	bound world.Player
}

// Queue is a tick-keyed task queue. It is not safe for concurrent use; the
// host calls RunAfter and Advance from its loop only.
type Queue struct {
	tick    uint64
	seq     uint64
	pending []entry
	logger  *slog.Logger
}

func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// RunAfter schedules task to run once, ticks ticks from now. A zero delay
// runs on the next Advance. When bound is non-nil and no longer valid at the
// due tick, the task is dropped.
func (q *Queue) RunAfter(ticks uint64, task func(), bound world.Player) {
	if task == nil {
		return
	}
	q.seq++
	q.pending = append(q.pending, entry{due: q.tick + max(ticks, 1), seq: q.seq, task: task, bound: bound})
}

// Advance moves the clock forward one tick and runs every task now due, in
// due-then-scheduling order. Tasks scheduled while running wait for a later
// tick. It returns the number of tasks that ran.
func (q *Queue) Advance() int {
	q.tick++

	var due []entry
	q.pending = slices.DeleteFunc(q.pending, func(e entry) bool {
		if e.due <= q.tick {
			due = append(due, e)
			return true
		}
		return false
	})
	slices.SortFunc(due, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.due, b.due), cmp.Compare(a.seq, b.seq))
	})

	ran := 0
	for _, e := range due {
		if e.bound != nil && !e.bound.IsValid() {
			q.logger.Debug("Dropping task for invalid session",
				logfields.Player(e.bound.ID().String()),
				logfields.Tick(q.tick))
			continue
		}
		e.task()
		ran++
	}
	return ran
}

// Tick is the number of Advance calls so far.
func (q *Queue) Tick() uint64 { return q.tick }

// Pending is the number of tasks waiting for a later tick.
func (q *Queue) Pending() int { return len(q.pending) }
