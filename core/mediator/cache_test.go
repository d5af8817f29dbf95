package mediator_test

import (
	"testing"
	"time"

	"github.com/dmitrymomot/courier/core/mediator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ResendRoundTrip(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	user := User{ID: "1", Name: "Ada"}

	tok, err := mediator.Broadcast(m, "X", user, mediator.WithCache(mediator.CacheForResends(1)))
	require.NoError(t, err)
	assert.False(t, tok.IsZero())
	assert.Equal(t, "X", tok.Message())
	assert.True(t, m.IsCached("X"))

	first := newRecorder[User]("first")
	_, err = mediator.Register(m, "X", first, (*recorder[User]).OnPayload)
	require.NoError(t, err)
	assert.Equal(t, []User{user}, first.Received())
	assert.False(t, m.IsCached("X"))

	second := newRecorder[User]("second")
	_, err = mediator.Register(m, "X", second, (*recorder[User]).OnPayload)
	require.NoError(t, err)
	assert.Empty(t, second.Received())
}

func TestCache_NResends(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 5} {
		m := mediator.New()
		_, err := mediator.Broadcast(m, "config", n, mediator.WithCache(mediator.CacheForResends(n)))
		require.NoError(t, err)

		for i := range n {
			assert.True(t, m.IsCached("config"), "n=%d i=%d", n, i)

			rec := newRecorder[int]("r")
			_, err := mediator.Register(m, "config", rec, (*recorder[int]).OnPayload)
			require.NoError(t, err)
			assert.Equal(t, []int{n}, rec.Received(), "n=%d i=%d", n, i)
		}

		assert.False(t, m.IsCached("config"), "n=%d", n)

		extra := newRecorder[int]("extra")
		_, err = mediator.Register(m, "config", extra, (*recorder[int]).OnPayload)
		require.NoError(t, err)
		assert.Empty(t, extra.Received(), "n=%d", n)
	}
}

func TestCache_ZeroResends(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	_, err := mediator.Broadcast(m, "x", 1, mediator.WithCache(mediator.CacheForResends(0)))
	require.NoError(t, err)
	assert.False(t, m.IsCached("x"))
}

func TestCache_Expiration(t *testing.T) {
	t.Parallel()

	t.Run("absolute deadline", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		m := mediator.New(mediator.WithClock(clock.Now))

		_, err := mediator.Broadcast(m, "X", "payload",
			mediator.WithCache(mediator.CacheUntil(clock.Now().Add(2*time.Second))))
		require.NoError(t, err)
		assert.True(t, m.IsCached("X"))

		clock.Advance(time.Second)
		assert.True(t, m.IsCached("X"))

		clock.Advance(time.Second)
		assert.False(t, m.IsCached("X"), "evicted without any replay")
		assert.Zero(t, m.Stats().CachedMessages)
	})

	t.Run("relative duration", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		m := mediator.New(mediator.WithClock(clock.Now))

		_, err := mediator.Broadcast(m, "X", "payload", mediator.WithCache(mediator.CacheFor(time.Minute)))
		require.NoError(t, err)

		for range 3 {
			rec := newRecorder[string]("r")
			_, err := mediator.Register(m, "X", rec, (*recorder[string]).OnPayload)
			require.NoError(t, err)
			assert.Equal(t, []string{"payload"}, rec.Received(), "time policy has no replay quota")
		}

		clock.Advance(time.Minute)
		rec := newRecorder[string]("late")
		_, err = mediator.Register(m, "X", rec, (*recorder[string]).OnPayload)
		require.NoError(t, err)
		assert.Empty(t, rec.Received())
		assert.False(t, m.IsCached("X"))
	})

	t.Run("wall clock", func(t *testing.T) {
		t.Parallel()

		m := mediator.New()
		_, err := mediator.Broadcast(m, "X", 1, mediator.WithCache(mediator.CacheFor(50*time.Millisecond)))
		require.NoError(t, err)
		assert.True(t, m.IsCached("X"))

		require.Eventually(t, func() bool {
			return !m.IsCached("X")
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestCache_RemoveFromCache(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	tok, err := mediator.Broadcast(m, "X", 1, mediator.WithCache(mediator.CacheForResends(3)))
	require.NoError(t, err)

	assert.True(t, m.RemoveFromCache(tok))
	assert.False(t, m.IsCached("X"))
	assert.False(t, m.RemoveFromCache(tok), "second removal finds nothing")
	assert.False(t, m.RemoveFromCache(mediator.Token{}))

	rec := newRecorder[int]("r")
	_, err = mediator.Register(m, "X", rec, (*recorder[int]).OnPayload)
	require.NoError(t, err)
	assert.Empty(t, rec.Received())
}

func TestCache_Forever(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := mediator.New(mediator.WithClock(clock.Now))

	tok, err := mediator.Broadcast(m, "X", 1, mediator.WithCache(mediator.CacheForever()))
	require.NoError(t, err)

	for range 10 {
		rec := newRecorder[int]("r")
		_, err := mediator.Register(m, "X", rec, (*recorder[int]).OnPayload)
		require.NoError(t, err)
		require.Len(t, rec.Received(), 1)
	}
	clock.Advance(100 * 365 * 24 * time.Hour)
	assert.True(t, m.IsCached("X"))

	require.True(t, m.RemoveFromCache(tok))
	assert.False(t, m.IsCached("X"))
}

func TestCache_ReplayOrderAndScope(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	for i := 1; i <= 3; i++ {
		_, err := mediator.Broadcast(m, "X", i, mediator.WithCache(mediator.CacheForever()))
		require.NoError(t, err)
	}
	_, err := mediator.Broadcast(m, "Y", 99, mediator.WithCache(mediator.CacheForever()))
	require.NoError(t, err)

	rec := newRecorder[int]("r")
	_, err = mediator.Register(m, "X", rec, (*recorder[int]).OnPayload)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, rec.Received(), "replayed in broadcast order, only for X")
}

func TestCache_ExcludeCached(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	_, err := mediator.Broadcast(m, "X", 1, mediator.WithCache(mediator.CacheForResends(1)))
	require.NoError(t, err)

	excluded := newRecorder[int]("excluded")
	_, err = mediator.Register(m, "X", excluded, (*recorder[int]).OnPayload, mediator.ExcludeCached())
	require.NoError(t, err)
	assert.Empty(t, excluded.Received())
	assert.True(t, m.IsCached("X"), "an excluded registration does not consume a resend")

	included := newRecorder[int]("included")
	_, err = mediator.Register(m, "X", included, (*recorder[int]).OnPayload)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, included.Received())
}

func TestCache_ReplayTypeHandling(t *testing.T) {
	t.Parallel()

	t.Run("mismatch is reported and does not consume the entry", func(t *testing.T) {
		t.Parallel()

		m := mediator.New()
		_, err := mediator.Broadcast(m, "X", User{ID: "1"}, mediator.WithCache(mediator.CacheForResends(1)))
		require.NoError(t, err)

		orders := newRecorder[Order]("orders")
		_, err = mediator.Register(m, "X", orders, (*recorder[Order]).OnPayload,
			mediator.WithErrorHandler(orders, (*recorder[Order]).OnError))
		require.NoError(t, err)

		assert.Empty(t, orders.Received())
		require.Len(t, orders.Errors(), 1)
		assert.ErrorIs(t, orders.Errors()[0], mediator.ErrTypeMismatch)
		assert.True(t, m.IsCached("X"))
	})

	t.Run("signal subscribers replay any payload without it", func(t *testing.T) {
		t.Parallel()

		m := mediator.New()
		_, err := mediator.Broadcast(m, "X", User{ID: "1"}, mediator.WithCache(mediator.CacheForResends(1)))
		require.NoError(t, err)

		rec := newRecorder[User]("signal")
		_, err = mediator.RegisterSignal(m, "X", rec, (*recorder[User]).OnSignal)
		require.NoError(t, err)

		assert.Equal(t, 1, rec.Signals())
		assert.False(t, m.IsCached("X"))
	})

	t.Run("cached signal", func(t *testing.T) {
		t.Parallel()

		m := mediator.New()
		tok, err := m.Signal("ready", mediator.WithCache(mediator.CacheForResends(2)))
		require.NoError(t, err)
		assert.False(t, tok.IsZero())

		rec := newRecorder[User]("signal")
		_, err = mediator.RegisterSignal(m, "ready", rec, (*recorder[User]).OnSignal)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Signals())
		assert.True(t, m.IsCached("ready"))
	})
}

// consumer panics on its first delivery only.
type consumer struct {
	panicked bool
	got      []int
}

func (c *consumer) OnValue(v int) {
	if !c.panicked {
		c.panicked = true
		panic("first delivery fails")
	}
	c.got = append(c.got, v)
}

func TestCache_PanickingReplayKeepsEntry(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	_, err := mediator.Broadcast(m, "X", 5, mediator.WithCache(mediator.CacheForResends(1)))
	require.NoError(t, err)

	c := &consumer{}
	_, err = mediator.Register(m, "X", c, (*consumer).OnValue)
	require.NoError(t, err)
	assert.True(t, m.IsCached("X"), "failed replay is not counted")

	rec := newRecorder[int]("r")
	_, err = mediator.Register(m, "X", rec, (*recorder[int]).OnPayload)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, rec.Received())
	assert.False(t, m.IsCached("X"))
}

func TestCache_InvalidSettings(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	rec := newRecorder[int]("r")
	_, err := mediator.Register(m, "X", rec, (*recorder[int]).OnPayload)
	require.NoError(t, err)

	_, err = mediator.Broadcast(m, "X", 1, mediator.WithCache(mediator.CacheSettings{}))
	require.ErrorIs(t, err, mediator.ErrCacheSettingsUnset)
	require.ErrorIs(t, err, mediator.ErrInvalidArgument)
	assert.Empty(t, rec.Received(), "invalid options fail before dispatch")
}

func TestCache_IsCachedUnknownMessage(t *testing.T) {
	t.Parallel()

	m := mediator.New()
	assert.False(t, m.IsCached("unknown"))
	assert.False(t, m.IsCached(""))
}
