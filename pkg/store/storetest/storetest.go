// Package storetest is a behavior suite any store.I implementation can run
// from its own tests.
package storetest

import (
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

// Factory returns a fresh unopened store.
type Factory func() store.I

// RandomHex returns n random bytes as hex.
func RandomHex(n int) string { return hex.EncodeToString(frand.Bytes(n)) }

// Event builds an event with random id, pubkey and signature. The signature
// is not valid, stores don't check it.
func Event(k int, ts nostr.Timestamp, content string,
	tags ...nostr.Tag) *nostr.Event {

	return &nostr.Event{
		ID:        RandomHex(32),
		PubKey:    RandomHex(32),
		CreatedAt: ts,
		Kind:      k,
		Tags:      nostr.Tags(tags),
		Content:   content,
		Sig:       RandomHex(64),
	}
}

// Open opens a new store in a temporary directory and closes it when the
// test ends.
func Open(t *testing.T, newStore Factory) (st store.I) {
	t.Helper()
	st = newStore()
	require.NoError(t, st.Open(filepath.Join(t.TempDir(), "db")))
	t.Cleanup(func() { _ = st.Close() })
	return
}

// IDs lists the ids of evs in order.
func IDs(evs []*nostr.Event) (ids []string) {
	for _, ev := range evs {
		ids = append(ids, ev.ID)
	}
	return
}

// Run exercises the behavior every backend shares.
func Run(t *testing.T, newStore Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore) })
	t.Run("Duplicate", func(t *testing.T) { testDuplicate(t, newStore) })
	t.Run("Malformed", func(t *testing.T) { testMalformed(t, newStore) })
	t.Run("Batch", func(t *testing.T) { testBatch(t, newStore) })
	t.Run("LimitOrder", func(t *testing.T) { testLimitOrder(t, newStore) })
	t.Run("Filters", func(t *testing.T) { testFilters(t, newStore) })
	t.Run("IDLookups", func(t *testing.T) { testIDLookups(t, newStore) })
	t.Run("EmptyTagValue", func(t *testing.T) { testEmptyTagValue(t, newStore) })
	t.Run("SharedTimestamp", func(t *testing.T) { testSharedTimestamp(t, newStore) })
	t.Run("QueryFilters", func(t *testing.T) { testQueryFilters(t, newStore) })
	t.Run("Count", func(t *testing.T) { testCount(t, newStore) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore) })
	t.Run("Wipe", func(t *testing.T) { testWipe(t, newStore) })
	t.Run("NotOpen", func(t *testing.T) { testNotOpen(t, newStore) })
	t.Run("Reopen", func(t *testing.T) { testReopen(t, newStore) })
}

func testRoundTrip(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	ev := Event(1, 1700000000, "hello \"world\"\n\u2603",
		nostr.Tag{"t", "greeting"},
		nostr.Tag{"e", RandomHex(32), "wss://relay.example.com", "root"},
		nostr.Tag{"p", RandomHex(32)})
	ok, err := st.Insert(c, ev)
	require.NoError(t, err)
	require.True(t, ok)
	evs, err := st.Query(c, &filter.T{Filter: nostr.Filter{IDs: []string{ev.ID}}})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, ev, evs[0])
}

func testDuplicate(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	ev := Event(1, 1700000000, "once")
	ok, err := st.Insert(c, ev)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Insert(c, ev)
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testMalformed(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	for _, ev := range []*nostr.Event{
		nil,
		{ID: "abc", PubKey: RandomHex(32), Kind: 1},
		{ID: RandomHex(32), PubKey: "", Kind: 1},
		{ID: RandomHex(32), PubKey: RandomHex(32), Kind: 70000},
		{ID: "AB" + RandomHex(31), PubKey: RandomHex(32), Kind: 1},
	} {
		ok, err := st.Insert(c, ev)
		assert.False(t, ok)
		assert.True(t, errors.Is(err, store.ErrWriteFailure), "%v", err)
		assert.True(t, errors.Is(err, store.ErrMalformed), "%v", err)
	}
	n, err := st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testBatch(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	a, b := Event(1, 10, "a"), Event(1, 20, "b")
	n := st.InsertBatch(c, []*nostr.Event{a, {ID: "bad"}, b, a})
	assert.Equal(t, 2, n)
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, IDs(evs))
}

func testLimitOrder(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	var all []*nostr.Event
	for i := 1; i <= 10; i++ {
		all = append(all, Event(1, nostr.Timestamp(1000+i*10), "n"))
	}
	// two sharing the newest timestamp, ordered by id
	tieA, tieB := Event(1, 2000, "tie"), Event(1, 2000, "tie")
	if tieA.ID > tieB.ID {
		tieA, tieB = tieB, tieA
	}
	all = append(all, tieB, tieA)
	require.Equal(t, len(all), st.InsertBatch(c, all))
	evs, err := st.Query(c, &filter.T{Filter: nostr.Filter{Limit: 3}})
	require.NoError(t, err)
	assert.Equal(t, []string{tieA.ID, tieB.ID, all[9].ID}, IDs(evs))
	evs, err = st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	require.Len(t, evs, 12)
	for i := 1; i < len(evs); i++ {
		assert.GreaterOrEqual(t, evs[i-1].CreatedAt, evs[i].CreatedAt)
	}
}

func testFilters(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	author := RandomHex(32)
	root := RandomHex(32)
	note := Event(1, 100, "Hello Nostr", nostr.Tag{"e", root},
		nostr.Tag{"t", "go"}, nostr.Tag{"t", "db"})
	note.PubKey = author
	reply := Event(1, 200, "a reply", nostr.Tag{"e", root})
	reaction := Event(7, 300, "+", nostr.Tag{"e", root}, nostr.Tag{"t", "go"})
	reaction.PubKey = author
	profile := Event(0, 400, `{"name":"x"}`)
	require.Equal(t, 4, st.InsertBatch(c,
		[]*nostr.Event{note, reply, reaction, profile}))
	since, until := nostr.Timestamp(200), nostr.Timestamp(300)
	for _, tc := range []struct {
		name string
		f    *filter.T
		want []*nostr.Event
	}{
		{"kinds", &filter.T{Filter: nostr.Filter{Kinds: []int{1}}},
			[]*nostr.Event{reply, note}},
		{"authors", &filter.T{Filter: nostr.Filter{Authors: []string{author}}},
			[]*nostr.Event{reaction, note}},
		{"authors kinds", &filter.T{Filter: nostr.Filter{
			Authors: []string{author}, Kinds: []int{7}}},
			[]*nostr.Event{reaction}},
		{"tags any", &filter.T{Filter: nostr.Filter{
			Tags: nostr.TagMap{"e": {root, RandomHex(32)}}}},
			[]*nostr.Event{reaction, reply, note}},
		{"tags and kinds", &filter.T{Filter: nostr.Filter{
			Kinds: []int{7}, Tags: nostr.TagMap{"t": {"go"}}}},
			[]*nostr.Event{reaction}},
		{"tags all", &filter.T{TagsAll: nostr.TagMap{"t": {"go", "db"}}},
			[]*nostr.Event{note}},
		{"since inclusive", &filter.T{Filter: nostr.Filter{Since: &since}},
			[]*nostr.Event{profile, reaction, reply}},
		{"until exclusive", &filter.T{Filter: nostr.Filter{Until: &until}},
			[]*nostr.Event{reply, note}},
		{"window", &filter.T{Filter: nostr.Filter{Since: &since, Until: &until}},
			[]*nostr.Event{reply}},
		{"search", &filter.T{Filter: nostr.Filter{Search: "nostr"}},
			[]*nostr.Event{note}},
		{"ids and kinds", &filter.T{Filter: nostr.Filter{
			IDs: []string{note.ID, profile.ID}, Kinds: []int{0}}},
			[]*nostr.Event{profile}},
		{"no match", &filter.T{Filter: nostr.Filter{Kinds: []int{30023}}},
			nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			evs, err := st.Query(c, tc.f)
			require.NoError(t, err)
			assert.Equal(t, IDs(tc.want), IDs(evs))
			n, err := st.Count(c, tc.f)
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.want), n)
		})
	}
}

func testIDLookups(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	zero := Event(1, 100, "zero")
	zero.ID = strings.Repeat("0", 64)
	other := Event(1, 200, "other")
	other.ID = "ab" + RandomHex(31)
	require.Equal(t, 2, st.InsertBatch(c, []*nostr.Event{zero, other}))
	for _, ids := range [][]string{
		{"nothex"},
		{strings.ToUpper(other.ID)},
		{"nothex", strings.ToUpper(other.ID), strings.Repeat("z", 64)},
	} {
		f := &filter.T{Filter: nostr.Filter{IDs: ids}}
		evs, err := st.Query(c, f)
		require.NoError(t, err)
		assert.Empty(t, evs, "%v", ids)
		n, err := st.Count(c, f)
		require.NoError(t, err)
		assert.Zero(t, n, "%v", ids)
		d, err := st.Delete(c, f)
		require.NoError(t, err)
		assert.Zero(t, d, "%v", ids)
	}
	n, err := st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	// a bad id next to a good one only drops the bad one
	f := &filter.T{Filter: nostr.Filter{IDs: []string{"nothex", other.ID}}}
	evs, err := st.Query(c, f)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, IDs(evs))
	n, err = st.Count(c, f)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testEmptyTagValue(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	empty := Event(1, 100, "empty", nostr.Tag{"t", ""})
	full := Event(1, 200, "full", nostr.Tag{"t", "x"})
	require.Equal(t, 2, st.InsertBatch(c, []*nostr.Event{empty, full}))
	for _, f := range []*filter.T{
		{Filter: nostr.Filter{Tags: nostr.TagMap{"t": {""}}}},
		{Filter: nostr.Filter{Kinds: []int{1}, Tags: nostr.TagMap{"t": {""}}}},
		{TagsAll: nostr.TagMap{"t": {""}}},
	} {
		require.True(t, f.Matches(empty))
		evs, err := st.Query(c, f)
		require.NoError(t, err)
		assert.Equal(t, []string{empty.ID}, IDs(evs))
		n, err := st.Count(c, f)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
	n, err := st.Delete(c, &filter.T{Filter: nostr.Filter{
		Tags: nostr.TagMap{"t": {""}}}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{full.ID}, IDs(evs))
}

// testSharedTimestamp stores more events on one second than a backend is
// likely to fetch in a single page.
func testSharedTimestamp(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	var all []*nostr.Event
	for i := 0; i < 7; i++ {
		all = append(all, Event(1, 1000, "same second"))
	}
	older := Event(1, 500, "older")
	all = append(all, older)
	require.Equal(t, len(all), st.InsertBatch(c, all))
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.ElementsMatch(t, IDs(all), IDs(evs))
	require.Len(t, evs, len(all))
	assert.Equal(t, older.ID, evs[len(evs)-1].ID)
	n, err := st.Count(c, &filter.T{Filter: nostr.Filter{Search: "same"}})
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	until := nostr.Timestamp(2000)
	n, err = st.Count(c, &filter.T{Filter: nostr.Filter{Until: &until}})
	require.NoError(t, err)
	assert.EqualValues(t, len(all), n)
	d, err := st.Delete(c, filter.KindsBefore([]int{1}, 2000))
	require.NoError(t, err)
	assert.Equal(t, len(all), d)
	n, err = st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testQueryFilters(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	a, b, d := Event(1, 10, "a"), Event(7, 20, "b"), Event(0, 30, "d")
	require.Equal(t, 3, st.InsertBatch(c, []*nostr.Event{a, b, d}))
	evs, err := st.QueryFilters(c, filter.S{
		{Filter: nostr.Filter{Kinds: []int{1, 7}}},
		{Filter: nostr.Filter{Kinds: []int{1, 0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID, d.ID}, IDs(evs))
}

func testCount(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	var evs []*nostr.Event
	for i := 0; i < 25; i++ {
		evs = append(evs, Event(1+i%3, nostr.Timestamp(100+i), "c"))
	}
	require.Equal(t, 25, st.InsertBatch(c, evs))
	n, err := st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.EqualValues(t, 25, n)
	n, err = st.Count(c, &filter.T{Filter: nostr.Filter{Kinds: []int{1}}})
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
	// limit only caps queries
	n, err = st.Count(c, &filter.T{Filter: nostr.Filter{Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 25, n)
}

func testDelete(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	old := Event(1, 100, "old", nostr.Tag{"t", "x"})
	mid := Event(1, 200, "mid", nostr.Tag{"t", "x"})
	other := Event(7, 100, "+")
	require.Equal(t, 3, st.InsertBatch(c, []*nostr.Event{old, mid, other}))
	n, err := st.Delete(c, filter.KindsBefore([]int{1}, 150))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mid.ID, other.ID}, IDs(evs))
	evs, err = st.Query(c, &filter.T{Filter: nostr.Filter{
		Tags: nostr.TagMap{"t": {"x"}}}})
	require.NoError(t, err)
	assert.Equal(t, []string{mid.ID}, IDs(evs))
	// deleting nothing
	n, err = st.Delete(c, filter.KindsBefore([]int{1}, 150))
	require.NoError(t, err)
	assert.Zero(t, n)
	// a deleted event can be stored again
	ok, err := st.Insert(c, old)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testWipe(t *testing.T, newStore Factory) {
	c := context.Background()
	st := Open(t, newStore)
	require.Equal(t, 2, st.InsertBatch(c, []*nostr.Event{
		Event(1, 1, "a"), Event(1, 2, "b")}))
	require.NoError(t, st.Wipe())
	n, err := st.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Zero(t, n)
	ev := Event(1, 3, "after")
	ok, err := st.Insert(c, ev)
	require.NoError(t, err)
	assert.True(t, ok)
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{ev.ID}, IDs(evs))
}

func testNotOpen(t *testing.T, newStore Factory) {
	c := context.Background()
	st := newStore()
	_, err := st.Insert(c, Event(1, 1, "x"))
	assert.ErrorIs(t, err, store.ErrNotOpen)
	_, err = st.Query(c, filter.MatchAll())
	assert.ErrorIs(t, err, store.ErrNotOpen)
	_, err = st.Count(c, filter.MatchAll())
	assert.ErrorIs(t, err, store.ErrNotOpen)
	_, err = st.Delete(c, filter.MatchAll())
	assert.ErrorIs(t, err, store.ErrNotOpen)
	assert.ErrorIs(t, st.Wipe(), store.ErrNotOpen)
	assert.NoError(t, st.Close())
	// and again after a close
	st = Open(t, newStore)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
	_, err = st.Query(c, filter.MatchAll())
	assert.ErrorIs(t, err, store.ErrNotOpen)
}

func testReopen(t *testing.T, newStore Factory) {
	c := context.Background()
	path := filepath.Join(t.TempDir(), "db")
	st := newStore()
	require.NoError(t, st.Open(path))
	assert.Equal(t, path, st.Path())
	first := Event(1, 10, "first")
	ok, err := st.Insert(c, first)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, st.Close())
	st = newStore()
	require.NoError(t, st.Open(path))
	defer st.Close()
	second := Event(1, 20, "second")
	ok, err = st.Insert(c, second)
	require.NoError(t, err)
	require.True(t, ok)
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, IDs(evs))
}
