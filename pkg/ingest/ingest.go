// Package ingest is the write path of the cache: a bounded queue in front of a
// record store, drained by one consumer goroutine, with the size governor
// running beside it.
//
// Producers never block. Events the kind policy does not persist are dropped
// at the door, and when the queue is full the oldest queued event is evicted
// to make room for the newest.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Hubmakerlabs/localstr/pkg/config"
	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/governor"
	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/Hubmakerlabs/localstr/pkg/qu"
	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger"
	"github.com/Hubmakerlabs/localstr/pkg/store/evstore"
	"github.com/nbd-wtf/go-nostr"
)

var log, chk = slog.New(os.Stderr)

// AppName names the default store directory.
const AppName = "localstr"

type T struct {
	cfg   *config.C
	st    store.I
	q     *ring
	stats *counters
	// wake is signalled on every enqueue, one pending signal is kept.
	wake qu.C

	// mx serializes Start and Stop.
	mx      sync.Mutex
	running atomic.Bool
	gov     *governor.T
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New validates cfg and builds the backend it names. A nil cfg uses the
// defaults.
func New(cfg *config.C) (p *T, err error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	var st store.I
	if st, err = NewStore(cfg.Backend); err != nil {
		return
	}
	return NewWithStore(cfg, st)
}

// NewStore returns an unopened store of the named backend.
func NewStore(backend string) (st store.I, err error) {
	switch backend {
	case config.BackendBadger:
		st = badger.New()
	case config.BackendEventstore:
		st = evstore.New()
	default:
		err = fmt.Errorf("%w: unknown backend %q", config.ErrConfigInvalid,
			backend)
	}
	return
}

// NewWithStore runs the pipeline over an unopened store provided by the
// caller.
func NewWithStore(cfg *config.C, st store.I) (p *T, err error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", config.ErrConfigInvalid)
	}
	if cfg.LogLevel != "" {
		slog.SetLogLevelString(cfg.LogLevel)
	}
	if cfg.EnableFTS {
		log.D.Ln("full text search requested, content search is a " +
			"substring match in every backend")
	}
	p = &T{
		cfg:   cfg,
		st:    st,
		q:     newRing(cfg.QueueSize),
		wake:  qu.Ts(1),
		stats: newCounters(),
	}
	return
}

// DefaultPath is the store directory used when neither Start nor the config
// name one.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if chk.D(err) {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName)
}

// ResolvePath picks the store directory: path when given, else the configured
// DBPath, else DefaultPath.
func ResolvePath(cfg *config.C, path string) string {
	switch {
	case path != "":
		return path
	case cfg != nil && cfg.DBPath != "":
		return cfg.DBPath
	}
	return DefaultPath()
}

// Start opens the store and starts the consumer and governor goroutines. It
// does nothing when already running.
func (p *T) Start(path string) (err error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.running.Load() {
		return
	}
	path = ResolvePath(p.cfg, path)
	if err = p.st.Open(path); chk.E(err) {
		return
	}
	log.I.Ln("ingestion started, store at", path)
	c, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.q.open()
	p.gov = governor.New(p.st, p.cfg.MaxSizeMB)
	p.gov.Interval = p.cfg.PruneInterval
	p.gov.Delay = p.cfg.PruneDelay
	p.wg.Add(2)
	go p.consume(c, p.wake)
	go func() {
		defer p.wg.Done()
		p.gov.Run(c)
	}()
	p.running.Store(true)
	return
}

// Stop cancels both goroutines, waits for them to return, drops whatever is
// still queued and closes the store. It does nothing when stopped.
func (p *T) Stop() {
	p.mx.Lock()
	defer p.mx.Unlock()
	if !p.running.Load() {
		return
	}
	p.running.Store(false)
	// shut before waiting so an Enqueue racing this can't land in the queue
	n := p.q.shut()
	p.cancel()
	p.wg.Wait()
	if n > 0 {
		log.I.F("dropped %d queued events on stop", n)
	}
	chk.E(p.st.Close())
	log.I.Ln("ingestion stopped")
}

// Running reports whether the pipeline is started.
func (p *T) Running() bool { return p.running.Load() }

// Enqueue offers an event for storage and never blocks. It returns false when
// the pipeline is stopped or the kind policy rejects the event.
func (p *T) Enqueue(ev *nostr.Event) (ok bool) {
	if ev == nil || !p.running.Load() {
		return
	}
	if !kind.ShouldPersist(ev.Kind) {
		p.stats.rejected.Inc()
		log.T.F("not persisting kind %d event %s", ev.Kind, ev.ID)
		return
	}
	evicted, pushed := p.q.push(ev)
	if !pushed {
		// stopped since the check above
		return
	}
	if evicted != nil {
		p.stats.evicted.Inc()
		log.T.F("queue full, evicted event %s", evicted.ID)
	}
	p.stats.enqueued.Inc()
	p.wake.Signal()
	return true
}

// consume writes queued events until c is done, sleeping on wake when the
// queue is empty.
func (p *T) consume(c context.Context, wake qu.C) {
	defer p.wg.Done()
	for {
		for {
			if c.Err() != nil {
				return
			}
			ev, ok := p.q.pop()
			if !ok {
				break
			}
			p.write(c, ev)
		}
		select {
		case <-c.Done():
			return
		case <-wake.Wait():
		}
	}
}

func (p *T) write(c context.Context, ev *nostr.Event) {
	ok, err := p.st.Insert(c, ev)
	switch {
	case err != nil:
		if c.Err() == nil {
			log.E.Ln(err)
		}
		p.stats.failed.Inc()
	case ok:
		p.stats.written.Inc()
	default:
		p.stats.duplicate.Inc()
	}
}

// Query returns the matches from the store, or nothing when stopped.
func (p *T) Query(c context.Context, f *filter.T) (evs []*nostr.Event,
	err error) {

	if !p.running.Load() {
		return
	}
	if evs, err = p.st.Query(c, f); errors.Is(err, store.ErrNotOpen) {
		return nil, nil
	}
	return
}

// QueryFilters returns the union of the matches of each filter, or nothing
// when stopped.
func (p *T) QueryFilters(c context.Context, fs filter.S) (
	evs []*nostr.Event, err error) {

	if !p.running.Load() {
		return
	}
	if evs, err = p.st.QueryFilters(c, fs); errors.Is(err, store.ErrNotOpen) {
		return nil, nil
	}
	return
}

// Count returns the number of matches, zero when stopped.
func (p *T) Count(c context.Context, f *filter.T) (n int64, err error) {
	if !p.running.Load() {
		return
	}
	if n, err = p.st.Count(c, f); errors.Is(err, store.ErrNotOpen) {
		return 0, nil
	}
	return
}

// EnforceSizeLimit runs a governor pass now. Failures are logged and give the
// partial report.
func (p *T) EnforceSizeLimit(c context.Context) (r governor.Report) {
	p.mx.Lock()
	gov := p.gov
	running := p.running.Load()
	p.mx.Unlock()
	if !running || gov == nil {
		return
	}
	var err error
	if r, err = gov.Enforce(c); err != nil {
		log.E.Ln(err)
	}
	return
}

// Stats returns the pipeline counters.
func (p *T) Stats() Stats { return p.stats.snapshot(p.q.len()) }

// Store is the record store the pipeline writes to.
func (p *T) Store() store.I { return p.st }
