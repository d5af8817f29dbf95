package mediator

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSubscriber is a subscriber with controllable liveness.
type stubSubscriber struct {
	tok  Token
	live bool
}

func (s *stubSubscriber) token() Token           { return s.tok }
func (s *stubSubscriber) name() string           { return "stub" }
func (s *stubSubscriber) expected() reflect.Type { return nil }
func (s *stubSubscriber) alive() bool            { return s.live }
func (s *stubSubscriber) fail(error) bool        { return false }

func (s *stubSubscriber) deliver(any, reflect.Type, bool) dispatchResult {
	if !s.live {
		return dispatchResult{status: statusReceiverGone}
	}
	return dispatchResult{status: statusDelivered}
}

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	r := newRegistry()

	require.ErrorIs(t, r.add(nil), ErrInvalidArgument)
	require.ErrorIs(t, r.add(&stubSubscriber{}), ErrInvalidArgument)

	tok := newToken("a", time.Now())
	first := &stubSubscriber{tok: tok, live: true}
	second := &stubSubscriber{tok: tok, live: true}

	require.NoError(t, r.add(first))
	require.NoError(t, r.add(second))

	got := r.lookup("a")
	require.Len(t, got, 1, "same token replaces the record")
	assert.Same(t, second, got[0])
	assert.Equal(t, 1, r.count())
}

func TestRegistry_LookupReturnsDeadRecords(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	live := &stubSubscriber{tok: newToken("a", time.Now()), live: true}
	dead := &stubSubscriber{tok: newToken("a", time.Now())}
	other := &stubSubscriber{tok: newToken("b", time.Now()), live: true}

	for _, s := range []*stubSubscriber{live, dead, other} {
		require.NoError(t, r.add(s))
	}

	assert.Len(t, r.lookup("a"), 2)
	assert.Len(t, r.lookup("b"), 1)
	assert.Empty(t, r.lookup("c"))
	assert.True(t, r.contains(dead.tok))

	assert.False(t, r.dropDead(live.tok))
	assert.True(t, r.dropDead(dead.tok))
	assert.False(t, r.dropDead(dead.tok))
	assert.Len(t, r.lookup("a"), 1)
}

func TestRegistry_LookupIsSnapshot(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	s := &stubSubscriber{tok: newToken("a", time.Now()), live: true}
	require.NoError(t, r.add(s))

	snap := r.lookup("a")
	require.True(t, r.remove(s.tok))

	assert.Len(t, snap, 1)
	assert.Empty(t, r.lookup("a"))
	assert.False(t, r.remove(s.tok))
	assert.Empty(t, r.byMessage, "empty buckets are dropped")
}

func TestRegistry_PruneAndClear(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	for i := range 6 {
		msg := "a"
		if i%2 == 0 {
			msg = "b"
		}
		require.NoError(t, r.add(&stubSubscriber{tok: newToken(msg, time.Now()), live: i < 2}))
	}

	assert.Equal(t, 4, r.prune())
	assert.Equal(t, 2, r.count())
	assert.Equal(t, 0, r.prune())

	r.clear()
	assert.Equal(t, 0, r.count())
}
