package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

func TestQueue_RunsOnceAtDueTick(t *testing.T) {
	q := NewQueue(nil)
	var order []string
	q.RunAfter(2, func() { order = append(order, "b") }, nil)
	q.RunAfter(1, func() { order = append(order, "a") }, nil)
	q.RunAfter(2, func() { order = append(order, "c") }, nil)
	assert.Equal(t, 3, q.Pending())

	assert.Equal(t, 1, q.Advance())
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 2, q.Advance())
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, q.Advance())
	assert.Equal(t, uint64(3), q.Tick())
	assert.Zero(t, q.Pending())
}

func TestQueue_ZeroDelayWaitsForNextTick(t *testing.T) {
	q := NewQueue(nil)
	ran := 0
	q.RunAfter(0, func() {
		ran++
		q.RunAfter(0, func() { ran++ }, nil)
	}, nil)
	assert.Equal(t, 1, q.Advance())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, q.Advance())
	assert.Equal(t, 2, ran)
}

func TestQueue_DropsTasksForInvalidSessions(t *testing.T) {
	q := NewQueue(nil)
	p := sim.NewPlayer("alex", world.Location{World: "world"})
	ran := false
	q.RunAfter(2, func() { ran = true }, p)
	q.Advance()
	p.Disconnect()
	assert.Zero(t, q.Advance())
	assert.False(t, ran)
	assert.Zero(t, q.Pending())
}

func TestTicker_Fires(t *testing.T) {
	tk, err := NewTicker(10*time.Millisecond, nil)
	require.NoError(t, err)

	var ticks atomic.Int32
	require.NoError(t, tk.Start(func() { ticks.Add(1) }))
	t.Cleanup(func() { _ = tk.Stop() })

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestNewTicker_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewTicker(0, nil)
	require.Error(t, err)
}
