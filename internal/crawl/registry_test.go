package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/capability"
	"git.home.luguber.info/inful/gsit/internal/events"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

func TestRegistry_StartStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{CustomMessage: true})
	alex := f.world.Join("alex", 0, 64, 0)

	require.True(t, f.registry.IsAvailable())

	c, err := f.registry.Start(ctx, alex)
	require.NoError(t, err)
	assert.Same(t, alex, c.Player())
	assert.Equal(t, testStart, c.Started())
	assert.True(t, f.registry.IsActive(alex.ID()))
	assert.Same(t, c, f.registry.Get(alex.ID()))
	assert.Equal(t, 1, f.world.MarkerCount())
	assert.Equal(t, []sentMessage{{player: "alex", key: attach.MessageCrawlInfo}}, f.messenger.sent)

	f.clock.Advance(1500 * time.Millisecond)
	require.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))

	assert.False(t, f.registry.IsActive(alex.ID()))
	assert.Nil(t, f.registry.Get(alex.ID()))
	assert.Zero(t, f.world.MarkerCount())
	assert.Equal(t, 1, f.registry.UsageCount())
	assert.Equal(t, int64(1500*time.Millisecond), f.registry.UsageNanos())
	assert.Equal(t, int64(1), f.registry.UsageSeconds())

	require.Len(t, f.notified, 2)
	assert.Equal(t, events.ActionStart, f.notified[0].Action())
	assert.Equal(t, events.ActionStop, f.notified[1].Action())
	assert.Equal(t, attach.ReasonGetUp, f.notified[1].StopReason())
}

func TestRegistry_UnavailableOnOldHosts(t *testing.T) {
	r := NewRegistry(Options{
		Bus:          events.NewBus(),
		Capabilities: capability.NewCheck(capability.Version{Major: 17, Minor: 1}),
		Clock:        clockwork.NewFakeClock(),
	})
	assert.False(t, r.IsAvailable())
}

func TestRegistry_ListAllIsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	for _, name := range []string{"alex", "bea"} {
		_, err := f.registry.Start(ctx, f.world.Join(name, 0, 64, 0))
		require.NoError(t, err)
	}

	list := f.registry.ListAll()
	require.Len(t, list, 2)
	list[0] = nil
	assert.Len(t, f.registry.ListAll(), 2)
	assert.NotNil(t, f.registry.ListAll()[0])
}

func TestRegistry_VetoedStartLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{CustomMessage: true})
	f.vetoStart("alex")
	alex := f.world.Join("alex", 0, 64, 0)

	c, err := f.registry.Start(ctx, alex)
	require.ErrorIs(t, err, attach.ErrVetoed)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRejected))
	assert.Nil(t, c)
	assert.False(t, f.registry.IsActive(alex.ID()))
	assert.Empty(t, f.registry.ListAll())
	assert.Empty(t, f.notified)
	assert.Empty(t, f.messenger.sent)
	assert.Zero(t, f.world.MarkerCount())
	assert.Zero(t, f.registry.UsageCount())
}

func TestRegistry_SecondStartIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	alex := f.world.Join("alex", 0, 64, 0)

	first, err := f.registry.Start(ctx, alex)
	require.NoError(t, err)
	_, err = f.registry.Start(ctx, alex)
	require.ErrorIs(t, err, attach.ErrAlreadyActive)

	assert.Same(t, first, f.registry.Get(alex.ID()))
	assert.Len(t, f.registry.ListAll(), 1)
	assert.Equal(t, 1, f.registry.UsageCount())
}

func TestRegistry_StopVeto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	f.vetoStop("alex")
	alex := f.world.Join("alex", 0, 64, 0)
	_, err := f.registry.Start(ctx, alex)
	require.NoError(t, err)

	assert.False(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))
	assert.True(t, f.registry.IsActive(alex.ID()))
	assert.Len(t, f.notified, 1)
	assert.Zero(t, f.registry.UsageNanos())

	f.clock.Advance(time.Second)
	assert.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonQuit), "forced reasons ignore vetoes")
	assert.False(t, f.registry.IsActive(alex.ID()))
	assert.Len(t, f.notified, 2)
	assert.Equal(t, int64(time.Second), f.registry.UsageNanos())
}

func TestRegistry_StopIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	alex := f.world.Join("alex", 0, 64, 0)

	assert.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))
	_, err := f.registry.Start(ctx, alex)
	require.NoError(t, err)
	require.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))

	count, nanos := f.registry.UsageCount(), f.registry.UsageNanos()
	assert.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))
	assert.Equal(t, count, f.registry.UsageCount())
	assert.Equal(t, nanos, f.registry.UsageNanos())
	assert.Len(t, f.notified, 2)
}

func TestRegistry_StopAllContinuesPastVeto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	f.vetoStop("bea")
	for _, name := range []string{"alex", "bea", "cato"} {
		_, err := f.registry.Start(ctx, f.world.Join(name, 0, 64, 0))
		require.NoError(t, err)
	}

	f.registry.StopAll(ctx, attach.ReasonGetUp)
	remaining := f.registry.ListAll()
	require.Len(t, remaining, 1)
	assert.Equal(t, "bea", remaining[0].Player().Name())

	f.registry.StopAll(ctx, attach.ReasonPlugin)
	assert.Empty(t, f.registry.ListAll())
	assert.Equal(t, 3, f.registry.UsageCount())
}

func TestRegistry_MaterializeFailure(t *testing.T) {
	ctx := context.Background()
	w := newFixture(t, attach.Settings{}).world
	alex := w.Join("alex", 0, 64, 0)

	factory := &mockFactory{}
	factory.On("MaterializeCrawl", alex).Return(attach.MarkerRef(0), errors.New("no space"))

	bus := events.NewBus()
	t.Cleanup(bus.Close)
	var started int
	events.Subscribe(bus, func(context.Context, *events.CrawlStarted) { started++ })

	r := NewRegistry(Options{
		Bus:          bus,
		Factory:      factory,
		Capabilities: capability.NewCheck(capability.Version{Major: 20}),
		Clock:        clockwork.NewFakeClockAt(testStart),
	})

	c, err := r.Start(ctx, alex)
	require.ErrorIs(t, err, attach.ErrMaterializeFailed)
	assert.Nil(t, c)
	assert.False(t, r.IsActive(alex.ID()))
	assert.Zero(t, started)
	assert.Zero(t, r.UsageCount())
	factory.AssertExpectations(t)
	factory.AssertNotCalled(t, "DestroyMarker", mock.Anything)
}

func TestRegistry_ResetUsageStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, attach.Settings{})
	alex := f.world.Join("alex", 0, 64, 0)
	_, err := f.registry.Start(ctx, alex)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)
	require.True(t, f.registry.Stop(ctx, alex.ID(), attach.ReasonGetUp))

	snap := f.registry.Usage()
	assert.Equal(t, attach.KindCrawl, snap.Kind)
	assert.Equal(t, int64(3), snap.Seconds)

	f.registry.ResetUsageStats()
	assert.Zero(t, f.registry.UsageCount())
	assert.Zero(t, f.registry.UsageSeconds())
}
