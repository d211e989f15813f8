package events

import (
	"cmp"
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

// Bus is a small, typed, synchronous in-process event bus.
//
// Design goals:
//   - Typed subscriptions (via generics)
//   - Synchronous dispatch: Publish returns only after every handler ran, so a
//     handler that cancels a pre-event is visible to the publisher
//   - Deterministic order: handlers run in subscription order
//
// Handlers run on the publisher's goroutine. The registries publish from the
// host loop, so handlers must not block.
type Bus struct {
	mu        sync.RWMutex
	subs      map[reflect.Type]map[uint64]*subscriber
	nextID    atomic.Uint64
	isClosed  atomic.Bool
	closeOnce sync.Once
}

type subscriber struct {
	id      uint64
	deliver func(ctx context.Context, evt any) bool
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[reflect.Type]map[uint64]*subscriber),
	}
}

// Subscribe registers handler for events of type T and returns an unsubscribe func.
//
// If T is an interface, published events whose concrete type implements T will be delivered.
// For concrete T, events are delivered only when the concrete type matches exactly, so
// subscribe to *PrePose (not PrePose) for the pointer events the registries publish.
func Subscribe[T any](b *Bus, handler func(ctx context.Context, evt T)) func() {
	eventType := reflect.TypeFor[T]()

	if b.isClosed.Load() {
		return func() {}
	}

	id := b.nextID.Add(1)
	sub := &subscriber{
		id: id,
		deliver: func(ctx context.Context, evt any) bool {
			v, ok := evt.(T)
			if !ok {
				return false
			}
			handler(ctx, v)
			return true
		},
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed.Load() {
		return func() {}
	}
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub

	var unsubOnce sync.Once
	return func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
		})
	}
}

// SubscriberCount returns the number of active subscribers for events of type T.
//
// This is primarily intended for tests and diagnostics.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}

	eventType := reflect.TypeFor[T]()

	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[eventType])
}

// Publish delivers evt to all matching subscribers, in subscription order.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	if b.isClosed.Load() {
		return ferrors.EventBusError("event bus is closed").
			WithContext("event_type", reflect.TypeOf(evt).String()).
			Build()
	}

	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	var targets []*subscriber
	for subType, typeSubs := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if !match {
			continue
		}
		for _, s := range typeSubs {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	slices.SortFunc(targets, func(a, b *subscriber) int { return cmp.Compare(a.id, b.id) })

	for _, s := range targets {
		if !s.deliver(ctx, evt) {
			return ferrors.InternalError("event type mismatch").
				WithContext("actual", evtType.String()).
				Build()
		}
	}

	return nil
}

// Close drops all subscriptions; later publishes fail.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.isClosed.Store(true)

		b.mu.Lock()
		b.subs = make(map[reflect.Type]map[uint64]*subscriber)
		b.mu.Unlock()
	})
}
