package pose

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/capability"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/permission"
	"git.home.luguber.info/inful/gsit/internal/scheduler"
	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingMessenger struct {
	sent []string
}

func (m *recordingMessenger) SendTransient(p world.Player, key string) {
	m.sent = append(m.sent, p.Name()+":"+key)
}

type fixture struct {
	bus       *events.Bus
	world     *sim.World
	clock     *clockwork.FakeClock
	queue     *scheduler.Queue
	messenger *recordingMessenger
	registry  *Registry
	started   []*attach.Pose
	stopped   []*events.PoseStopped
	seat      world.Cell
}

func newFixture(t *testing.T, settings attach.Settings) *fixture {
	t.Helper()
	f := &fixture{
		bus:       events.NewBus(),
		world:     sim.NewWorld("world"),
		clock:     clockwork.NewFakeClockAt(testStart),
		queue:     scheduler.NewQueue(nil),
		messenger: &recordingMessenger{},
	}
	t.Cleanup(f.bus.Close)
	f.seat = f.world.Cell(0, 64, 0)
	f.world.SetBlock(f.seat, "OAK_STAIRS")

	events.Subscribe(f.bus, func(_ context.Context, e *events.PoseStarted) { f.started = append(f.started, e.Pose) })
	events.Subscribe(f.bus, func(_ context.Context, e *events.PoseStopped) { f.stopped = append(f.stopped, e) })

	f.registry = NewRegistry(Options{
		Bus:          f.bus,
		Factory:      f.world,
		Locator:      f.world,
		Terrain:      f.world,
		Capabilities: capability.NewCheck(capability.Version{Major: 20, Minor: 5}),
		Permissions:  permission.NewGrants(map[string][]string{"op": {"Kick.*"}, "mod": {"Kick.Pose"}}),
		Messenger:    f.messenger,
		Scheduler:    f.queue,
		Settings:     attach.StaticSettings(settings),
		Clock:        f.clock,
	})
	return f
}

func (f *fixture) join(name string) *sim.Player {
	return f.world.Join(name, 3, 65, 3)
}

func (f *fixture) sit(t *testing.T, p *sim.Player, cell world.Cell) *attach.Pose {
	t.Helper()
	state, err := f.registry.CreateDefault(context.Background(), cell, p, attach.VariantSitting)
	require.NoError(t, err)
	return state
}

func (f *fixture) vetoRemoval(names ...string) func() {
	return events.Subscribe(f.bus, func(_ context.Context, e *events.PreStopPose) {
		for _, n := range names {
			if e.Pose.Player().Name() == n {
				e.SetCancelled(true)
			}
		}
	})
}

// requireIndexConsistent checks that the cell index matches the player index exactly.
func requireIndexConsistent(t *testing.T, r *Registry, cells ...world.Cell) {
	t.Helper()
	all := r.ListAll()
	for _, cell := range cells {
		var want []*attach.Pose
		for _, p := range all {
			if p.Cell() == cell {
				want = append(want, p)
			}
		}
		require.ElementsMatch(t, want, r.Occupants(cell), "occupants of %s", cell)
		require.Equal(t, len(want) > 0, r.IsOccupied(cell))
		_, recorded := r.OriginalMaterial(cell)
		require.Equal(t, len(want) > 0, recorded, "material of %s", cell)
	}
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
