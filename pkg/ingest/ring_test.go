package ingest

import (
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/store/storetest"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPush pushes ev into an open ring and returns what it evicted.
func mustPush(t *testing.T, r *ring, ev *nostr.Event) *nostr.Event {
	t.Helper()
	evicted, ok := r.push(ev)
	require.True(t, ok)
	return evicted
}

func TestRing(t *testing.T) {
	r := newRing(3)
	r.open()
	var evs []*nostr.Event
	for i := 0; i < 5; i++ {
		evs = append(evs, storetest.Event(1, nostr.Timestamp(i), ""))
	}
	assert.Nil(t, mustPush(t, r, evs[0]))
	assert.Nil(t, mustPush(t, r, evs[1]))
	assert.Nil(t, mustPush(t, r, evs[2]))
	assert.Equal(t, evs[0], mustPush(t, r, evs[3]))
	assert.Equal(t, evs[1], mustPush(t, r, evs[4]))
	assert.Equal(t, 3, r.len())
	for _, want := range evs[2:] {
		ev, ok := r.pop()
		require.True(t, ok)
		assert.Equal(t, want, ev)
	}
	_, ok := r.pop()
	assert.False(t, ok)
	// wraps around after draining
	mustPush(t, r, evs[0])
	mustPush(t, r, evs[1])
	assert.Equal(t, 2, r.shut())
	assert.Zero(t, r.len())
	_, ok = r.pop()
	assert.False(t, ok)
}

func TestRingShut(t *testing.T) {
	r := newRing(2)
	ev := storetest.Event(1, 1, "")
	_, ok := r.push(ev)
	assert.False(t, ok, "a new ring is shut")
	r.open()
	mustPush(t, r, ev)
	assert.Equal(t, 1, r.shut())
	_, ok = r.push(ev)
	assert.False(t, ok)
	assert.Zero(t, r.len())
	r.open()
	assert.Zero(t, r.len())
	mustPush(t, r, ev)
	assert.Equal(t, 1, r.len())
}

func TestRingMinimumCapacity(t *testing.T) {
	r := newRing(0)
	r.open()
	a, b := storetest.Event(1, 1, ""), storetest.Event(1, 2, "")
	assert.Nil(t, mustPush(t, r, a))
	assert.Equal(t, a, mustPush(t, r, b))
	ev, ok := r.pop()
	require.True(t, ok)
	assert.Equal(t, b, ev)
}
