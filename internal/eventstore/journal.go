package eventstore

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/logfields"
)

// DefaultJournalBuffer is the number of entries queued before new ones are dropped.
const DefaultJournalBuffer = 256

// Journal writes post-event notifications to a Store on its own goroutine so
// the host loop never waits for the database.
type Journal struct {
	store      Store
	projection *SessionProjection
	clock      clockwork.Clock
	logger     *slog.Logger

	mu      sync.RWMutex
	closed  bool
	queue   chan *BaseEvent
	done    chan struct{}
	dropped atomic.Uint64
}

// NewJournal starts the writer goroutine. projection may be nil.
func NewJournal(store Store, projection *SessionProjection, clock clockwork.Clock, logger *slog.Logger, buffer int) *Journal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = DefaultJournalBuffer
	}
	j := &Journal{
		store:      store,
		projection: projection,
		clock:      clock,
		logger:     logger,
		queue:      make(chan *BaseEvent, buffer),
		done:       make(chan struct{}),
	}
	go j.run()
	return j
}

// Subscribe attaches the journal to every notification on bus.
func (j *Journal) Subscribe(bus *events.Bus) func() {
	return events.Subscribe(bus, func(_ context.Context, n events.Notification) {
		if err := j.Record(n); err != nil {
			j.logger.Warn("Failed to journal notification", logfields.Error(err))
		}
	})
}

// Record queues n without blocking. A full queue drops the entry.
func (j *Journal) Record(n events.Notification) error {
	e, err := NewSessionEvent(n, j.clock.Now())
	if err != nil {
		return err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJournalClosed
	}
	select {
	case j.queue <- e:
	default:
		j.dropped.Add(1)
		j.logger.Warn("Journal queue full, dropping entry",
			logfields.Player(e.PlayerID()),
			slog.String("type", e.Type()))
	}
	return nil
}

func (j *Journal) run() {
	defer close(j.done)
	for e := range j.queue {
		err := j.store.Append(context.Background(), e.PlayerID(), e.Type(), e.Timestamp(), e.Payload(), e.Metadata())
		if err != nil {
			j.logger.Error("Failed to append journal entry", logfields.Error(err))
			continue
		}
		if j.projection != nil {
			j.projection.Apply(e)
		}
	}
}

// Dropped is the number of entries lost to a full queue.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

// Close stops accepting entries and waits until queued ones are written.
func (j *Journal) Close() {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()
	<-j.done
}
