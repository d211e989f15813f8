package crawl

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/capability"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type sentMessage struct {
	player string
	key    string
}

type recordingMessenger struct {
	sent []sentMessage
}

func (m *recordingMessenger) SendTransient(p world.Player, key string) {
	m.sent = append(m.sent, sentMessage{player: p.Name(), key: key})
}

type fixture struct {
	bus       *events.Bus
	world     *sim.World
	clock     *clockwork.FakeClock
	messenger *recordingMessenger
	registry  *Registry
	notified  []events.Notification
}

func newFixture(t *testing.T, settings attach.Settings) *fixture {
	t.Helper()
	f := &fixture{
		bus:       events.NewBus(),
		world:     sim.NewWorld("world"),
		clock:     clockwork.NewFakeClockAt(testStart),
		messenger: &recordingMessenger{},
	}
	t.Cleanup(f.bus.Close)
	events.Subscribe(f.bus, func(_ context.Context, n events.Notification) { f.notified = append(f.notified, n) })
	f.registry = NewRegistry(Options{
		Bus:          f.bus,
		Factory:      f.world,
		Capabilities: capability.NewCheck(capability.Version{Major: 20, Minor: 5}),
		Messenger:    f.messenger,
		Settings:     attach.StaticSettings(settings),
		Clock:        f.clock,
	})
	return f
}

func (f *fixture) vetoStart(names ...string) func() {
	return events.Subscribe(f.bus, func(_ context.Context, e *events.PreCrawl) {
		for _, n := range names {
			if e.Subject.Name() == n {
				e.SetCancelled(true)
			}
		}
	})
}

func (f *fixture) vetoStop(names ...string) func() {
	return events.Subscribe(f.bus, func(_ context.Context, e *events.PreStopCrawl) {
		for _, n := range names {
			if e.Crawl.Player().Name() == n {
				e.SetCancelled(true)
			}
		}
	})
}

type mockFactory struct {
	mock.Mock
}

func (m *mockFactory) ValidateLocation(point world.Location) bool {
	return m.Called(point).Bool(0)
}

func (m *mockFactory) MaterializeMarker(point world.Location, player world.Player, bound bool) (attach.MarkerRef, error) {
	args := m.Called(point, player, bound)
	return args.Get(0).(attach.MarkerRef), args.Error(1)
}

func (m *mockFactory) MaterializeCrawl(player world.Player) (attach.MarkerRef, error) {
	args := m.Called(player)
	return args.Get(0).(attach.MarkerRef), args.Error(1)
}

func (m *mockFactory) DestroyMarker(ref attach.MarkerRef) { m.Called(ref) }

func (m *mockFactory) MoveSession(player world.Player, to world.Location) { m.Called(player, to) }
