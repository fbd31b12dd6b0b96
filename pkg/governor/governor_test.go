package governor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger"
	"github.com/Hubmakerlabs/localstr/pkg/store/storetest"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records deletes and can be told to fail.
type fakeStore struct {
	store.I
	mx        sync.Mutex
	path      string
	deletes   []*filter.T
	perDelete int
	err       error
	compacted int
}

func (f *fakeStore) Path() string { return f.path }

func (f *fakeStore) Delete(_ context.Context, flt *filter.T) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.deletes = append(f.deletes, flt)
	return f.perDelete, nil
}

func (f *fakeStore) Compact() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.compacted++
	return nil
}

func (f *fakeStore) deleteCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.deletes)
}

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newFake(size float64) (g *T, fs *fakeStore) {
	fs = &fakeStore{}
	g = New(fs, 100)
	g.Now = func() time.Time { return now }
	g.SizeMB = func() float64 { return size }
	return
}

func labels(r Report) (l []string) {
	for _, s := range r.Sweeps {
		l = append(l, s.Tier.String()+"/"+s.Label)
	}
	return
}

func TestTierBoundaries(t *testing.T) {
	for _, tc := range []struct {
		name       string
		size       float64
		near, over bool
		sweeps     []string
	}{
		{"empty", 0, false, false, []string{
			"normal/engagement", "normal/content", "normal/private"}},
		{"exactly 85%", 85, false, false, []string{
			"normal/engagement", "normal/content", "normal/private"}},
		{"86%", 86, true, false, []string{
			"normal/engagement", "normal/content", "normal/private",
			"moderate/engagement", "moderate/content", "moderate/private"}},
		{"exactly at cap", 100, true, false, []string{
			"normal/engagement", "normal/content", "normal/private",
			"moderate/engagement", "moderate/content", "moderate/private"}},
		{"101%", 101, true, true, []string{
			"normal/engagement", "normal/content", "normal/private",
			"aggressive/engagement", "aggressive/content",
			"aggressive/private", "aggressive/identity",
			"aggressive/metadata"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, fs := newFake(tc.size)
			assert.Equal(t, tc.near, g.IsNearLimit())
			assert.Equal(t, tc.over, g.IsOverLimit())
			r, err := g.Enforce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.size, r.SizeMB)
			assert.Equal(t, tc.sweeps, labels(r))
			assert.Len(t, fs.deletes, len(tc.sweeps))
			for _, f := range fs.deletes {
				require.NotNil(t, f.Until)
				assert.NotEmpty(t, f.Kinds)
				assert.Nil(t, f.Since)
			}
		})
	}
}

func TestWindows(t *testing.T) {
	g, fs := newFake(101)
	_, err := g.Enforce(context.Background())
	require.NoError(t, err)
	ago := func(days int) nostr.Timestamp {
		return nostr.Timestamp(now.Add(-time.Duration(days) * Day).Unix())
	}
	want := []struct {
		kinds []int
		days  int
	}{
		{kind.KindsIn(kind.Engagement), 14},
		{kind.KindsIn(kind.Content), 60},
		{kind.KindsIn(kind.Private), 180},
		{kind.KindsIn(kind.Engagement), 3},
		{kind.KindsIn(kind.Content), 14},
		{kind.KindsIn(kind.Private), 30},
		{[]int{0}, 30},
		{kind.KindsIn(kind.Metadata), 365},
	}
	require.Len(t, fs.deletes, len(want))
	for i, w := range want {
		assert.Equal(t, w.kinds, fs.deletes[i].Kinds, "sweep %d", i)
		assert.Equal(t, ago(w.days), *fs.deletes[i].Until, "sweep %d", i)
	}
}

func TestCompactAfterDeletes(t *testing.T) {
	g, fs := newFake(0)
	r, err := g.Enforce(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Compacted)
	assert.Zero(t, fs.compacted)
	fs.perDelete = 2
	r, err = g.Enforce(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Compacted)
	assert.Equal(t, 1, fs.compacted)
	assert.Equal(t, 6, r.Deleted())
}

func TestFailures(t *testing.T) {
	g, fs := newFake(50)
	fs.err = store.ErrNotOpen
	r, err := g.Enforce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, r)
	boom := errors.New("disk on fire")
	fs.err = boom
	_, err = g.Enforce(context.Background())
	assert.ErrorIs(t, err, ErrPruneFailure)
	assert.ErrorIs(t, err, boom)
}

func TestMissingDirectory(t *testing.T) {
	fs := &fakeStore{path: filepath.Join(t.TempDir(), "not", "there")}
	g := New(fs, 1)
	assert.Zero(t, g.DbSizeMB())
	assert.False(t, g.IsNearLimit())
	assert.False(t, g.IsOverLimit())
	r, err := g.Enforce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Tier{Normal}, r.Tiers)
	// an unopened store reports nothing
	g = New(badger.New(), 1)
	assert.Zero(t, g.DbSizeMB())
	r, err = g.Enforce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, r)
}

func TestNormalPruneScenario(t *testing.T) {
	c := context.Background()
	st := storetest.Open(t, func() store.I { return badger.New() })
	at := func(days int) nostr.Timestamp {
		return nostr.Timestamp(now.Add(-time.Duration(days) * Day).Unix())
	}
	old := storetest.Event(1, at(100), "old")
	mid := storetest.Event(1, at(50), "mid")
	recent := storetest.Event(1, at(1), "recent")
	profile := storetest.Event(0, at(1000), "{}")
	require.Equal(t, 4, st.InsertBatch(c,
		[]*nostr.Event{old, mid, recent, profile}))
	g := New(st, 1<<20)
	g.Now = func() time.Time { return now }
	r, err := g.Enforce(c)
	require.NoError(t, err)
	assert.Equal(t, []Tier{Normal}, r.Tiers)
	assert.Equal(t, 1, r.Deleted())
	evs, err := st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{recent.ID, mid.ID, profile.ID},
		storetest.IDs(evs))
	// over the cap the aggressive tier takes the rest apart from the recent
	// note
	g.SizeMB = func() float64 { return 2 << 20 }
	r, err = g.Enforce(c)
	require.NoError(t, err)
	assert.Equal(t, []Tier{Normal, Aggressive}, r.Tiers)
	assert.Equal(t, 2, r.Deleted())
	evs, err = st.Query(c, filter.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{recent.ID}, storetest.IDs(evs))
}

func TestRun(t *testing.T) {
	g, fs := newFake(0)
	g.Delay = time.Millisecond
	g.Interval = 5 * time.Millisecond
	c, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(c)
		close(done)
	}()
	require.Eventually(t, func() bool { return fs.deleteCount() >= 6 },
		5*time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	g, fs := newFake(0)
	fs.err = errors.New("transient")
	g.Interval = time.Millisecond
	c, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(c)
	time.Sleep(10 * time.Millisecond)
	fs.mx.Lock()
	fs.err = nil
	fs.mx.Unlock()
	require.Eventually(t, func() bool { return fs.deleteCount() >= 3 },
		5*time.Second, time.Millisecond)
}
