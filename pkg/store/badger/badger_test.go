package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/Hubmakerlabs/localstr/pkg/store/storetest"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	storetest.Run(t, func() store.I { return New() })
}

func openBackend(t *testing.T) (b *Backend) {
	t.Helper()
	b = New()
	require.NoError(t, b.Open(filepath.Join(t.TempDir(), "db")))
	t.Cleanup(func() { _ = b.Close() })
	return
}

// indexKeyCount counts keys under the store prefixes.
func indexKeyCount(t *testing.T, b *Backend) (counts map[index.P]int) {
	counts = make(map[index.P]int)
	require.NoError(t, b.db.View(func(txn *badger.Txn) (err error) {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			if len(k) > 0 && k[0] <= index.Refs.B() {
				counts[index.P(k[0])]++
			}
		}
		return
	}))
	return
}

func TestNegativeTimestamps(t *testing.T) {
	c := context.Background()
	b := openBackend(t)
	past := storetest.Event(1, -100, "before the epoch")
	zero := storetest.Event(1, 0, "the epoch")
	now := storetest.Event(1, 100, "after")
	require.Equal(t, 3, b.InsertBatch(c, []*nostr.Event{zero, past, now}))
	evs, err := b.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{now.ID, zero.ID, past.ID}, storetest.IDs(evs))
	since := nostr.Timestamp(-50)
	evs, err = b.Query(c, &filter.T{Filter: nostr.Filter{Since: &since}})
	require.NoError(t, err)
	assert.Equal(t, []string{now.ID, zero.ID}, storetest.IDs(evs))
	until := nostr.Timestamp(0)
	evs, err = b.Query(c, &filter.T{Filter: nostr.Filter{Until: &until,
		Kinds: []int{1}}})
	require.NoError(t, err)
	assert.Equal(t, []string{past.ID}, storetest.IDs(evs))
}

func TestCountWithoutBodies(t *testing.T) {
	c := context.Background()
	b := openBackend(t)
	ev := storetest.Event(7, 1000, "+")
	ok, err := b.Insert(c, ev)
	require.NoError(t, err)
	require.True(t, ok)
	// remove the event record behind the indexes' back
	require.NoError(t, b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(index.Event.Key(serial.New(serial.Make(0))))
	}))
	n, err := b.Count(c, &filter.T{Filter: nostr.Filter{Kinds: []int{7}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "kind count must come from the index alone")
	n, err = b.Count(c, filter.MatchAll())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = b.Count(c, &filter.T{Filter: nostr.Filter{Kinds: []int{7},
		Search: "+"}})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "search needs the record")
}

func TestPrepareQueriesExact(t *testing.T) {
	since := nostr.Timestamp(5)
	for _, tc := range []struct {
		name  string
		f     *filter.T
		exact bool
		n     int
	}{
		{"all", filter.MatchAll(), true, 1},
		{"window", &filter.T{Filter: nostr.Filter{Since: &since}}, true, 1},
		{"kinds", &filter.T{Filter: nostr.Filter{Kinds: []int{1, 7, 1}}}, true, 2},
		{"kinds search", &filter.T{Filter: nostr.Filter{Kinds: []int{1},
			Search: "x"}}, false, 1},
		{"ids", &filter.T{Filter: nostr.Filter{IDs: []string{
			storetest.RandomHex(32)}}}, true, 1},
		{"ids since", &filter.T{Filter: nostr.Filter{IDs: []string{
			storetest.RandomHex(32)}, Since: &since}}, false, 1},
		{"authors kinds", &filter.T{Filter: nostr.Filter{
			Authors: []string{storetest.RandomHex(32), storetest.RandomHex(32)},
			Kinds:   []int{1, 2, 3}}}, false, 6},
		{"tags", &filter.T{Filter: nostr.Filter{
			Tags: nostr.TagMap{"e": {"a", "b"}}}}, false, 2},
		{"long tag name", &filter.T{Filter: nostr.Filter{
			Tags: nostr.TagMap{"expiration": {"1"}}}}, false, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := PrepareQueries(tc.f)
			assert.Equal(t, tc.exact, p.exact)
			assert.Len(t, p.queries, tc.n)
		})
	}
}

func TestDeleteLeavesNoKeys(t *testing.T) {
	c := context.Background()
	b := openBackend(t)
	var evs []*nostr.Event
	for i := 0; i < 20; i++ {
		evs = append(evs, storetest.Event(1, nostr.Timestamp(i), "x",
			nostr.Tag{"e", storetest.RandomHex(32)},
			nostr.Tag{"p", storetest.RandomHex(32)},
			nostr.Tag{"t", "same"}, nostr.Tag{"t", "same"}))
	}
	require.Equal(t, 20, b.InsertBatch(c, evs))
	counts := indexKeyCount(t, b)
	assert.Equal(t, 20, counts[index.Event])
	assert.Equal(t, 20, counts[index.Refs])
	// duplicate tags are indexed once
	assert.Equal(t, 60, counts[index.Tag])
	n, err := b.Delete(c, &filter.T{Filter: nostr.Filter{Kinds: []int{1}}})
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Empty(t, indexKeyCount(t, b))
	require.NoError(t, b.Compact())
}

func TestRefs(t *testing.T) {
	ev := storetest.Event(1, 100, "refs", nostr.Tag{"t", "x"}, nostr.Tag{"t", ""})
	keyz := GetIndexKeysForEvent(ev, serial.New(serial.Make(7)))
	got, err := decodeRefs(encodeRefs(keyz))
	require.NoError(t, err)
	assert.Equal(t, keyz, got)
	_, err = decodeRefs([]byte{5, 1})
	assert.Error(t, err)
	_, err = decodeRefs(encodeRefs([][]byte{{1, 2, 3}}))
	assert.Error(t, err)
}

func TestMissingSequence(t *testing.T) {
	c := context.Background()
	b := openBackend(t)
	b.mx.Lock()
	require.NoError(t, b.seq.Release())
	b.seq = nil
	b.mx.Unlock()
	ok, err := b.Insert(c, storetest.Event(1, 1, "x"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, store.ErrNotOpen)
	// a wipe leases the sequence again
	require.NoError(t, b.Wipe())
	ok, err = b.Insert(c, storetest.Event(1, 2, "y"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestContextCanceled(t *testing.T) {
	b := openBackend(t)
	c, cancel := context.WithCancel(context.Background())
	require.Equal(t, 1, b.InsertBatch(c, []*nostr.Event{
		storetest.Event(1, 1, "x")}))
	cancel()
	_, err := b.Query(c, filter.MatchAll())
	assert.ErrorIs(t, err, context.Canceled)
	ok, err := b.Insert(c, storetest.Event(1, 2, "y"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, store.ErrWriteFailure)
}
