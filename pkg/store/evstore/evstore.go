// Package evstore adapts the fiatjaf/eventstore badger backend to store.I.
//
// The wrapped store knows nothing of TagsAll, search or an exclusive until, so
// every result is checked again with filter.T.Matches and queries walk the
// underlying store a page at a time.
package evstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/fiatjaf/eventstore"
	"github.com/fiatjaf/eventstore/badger"
	"github.com/nbd-wtf/go-nostr"
)

var log, chk = slog.New(os.Stderr)

var (
	_ store.I         = (*Backend)(nil)
	_ store.Compactor = (*Backend)(nil)
)

// DefaultPageSize is the number of events fetched from the wrapped store in
// one query.
const DefaultPageSize = 5000

// noLimit is handed to the wrapped store as its MaxLimit so that the limit of
// each query, always set by walk, is honored as given.
const noLimit = math.MaxInt32

type Backend struct {
	// PageSize is the limit of each underlying query.
	PageSize int

	mx   sync.RWMutex
	path string
	db   *badger.BadgerBackend
}

func New() (b *Backend) { return &Backend{PageSize: DefaultPageSize} }

func (b *Backend) Open(path string) (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err = os.MkdirAll(path, 0700); chk.E(err) {
		return
	}
	if b.PageSize <= 0 {
		b.PageSize = DefaultPageSize
	}
	log.I.Ln("opening eventstore badger backend at", path)
	db := &badger.BadgerBackend{Path: path, MaxLimit: noLimit}
	if err = db.Init(); chk.E(err) {
		return
	}
	b.db, b.path = db, path
	return
}

func (b *Backend) Close() (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.db == nil {
		return
	}
	log.I.Ln("closing eventstore badger backend at", b.path)
	b.db.Close()
	b.db = nil
	return
}

func (b *Backend) Path() (s string) {
	b.mx.RLock()
	defer b.mx.RUnlock()
	return b.path
}

func (b *Backend) read(fn func(db *badger.BadgerBackend) (err error)) (err error) {
	b.mx.RLock()
	defer b.mx.RUnlock()
	if b.db == nil {
		return store.ErrNotOpen
	}
	return fn(b.db)
}

func (b *Backend) Insert(c context.Context, ev *nostr.Event) (ok bool,
	err error) {

	if err = store.ValidateEvent(ev); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrWriteFailure, err)
	}
	err = b.read(func(db *badger.BadgerBackend) (err error) {
		if err = db.SaveEvent(c, ev); err != nil {
			if errors.Is(err, eventstore.ErrDupEvent) {
				return nil
			}
			return
		}
		ok = true
		return
	})
	if err != nil && !errors.Is(err, store.ErrNotOpen) {
		err = fmt.Errorf("%w: %s: %w", store.ErrWriteFailure, ev.ID, err)
	}
	return
}

func (b *Backend) InsertBatch(c context.Context, evs []*nostr.Event) (n int) {
	for _, ev := range evs {
		if c.Err() != nil {
			return
		}
		ok, err := b.Insert(c, ev)
		if chk.D(err) {
			continue
		}
		if ok {
			n++
		}
	}
	return
}

// page runs one query against the wrapped store and feeds the unseen matches
// to fn. raw counts everything the store returned.
func page(c context.Context, db *badger.BadgerBackend, nf nostr.Filter,
	f *filter.T, seen map[string]struct{},
	fn func(ev *nostr.Event) (stop bool)) (raw, fresh int,
	oldest nostr.Timestamp, stop bool, err error) {

	oldest = math.MaxInt64
	var ch chan *nostr.Event
	if ch, err = db.QueryEvents(c, nf); chk.E(err) {
		return
	}
	for ev := range ch {
		if ev == nil {
			continue
		}
		raw++
		if ev.CreatedAt < oldest {
			oldest = ev.CreatedAt
		}
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		fresh++
		if f.Matches(ev) && fn(ev) {
			// drain so the producer goroutine can finish
			for range ch {
			}
			stop = true
			return
		}
	}
	return
}

// walk feeds every event matching f to fn, newest page first. Paging moves an
// inclusive until down to the oldest timestamp of the previous page and skips
// ids already seen. When a full page holds nothing new, every event of that
// page shares one timestamp; that second is queried alone with a doubling
// limit until it is exhausted, and paging resumes below it.
func (b *Backend) walk(c context.Context, db *badger.BadgerBackend,
	f *filter.T, fn func(ev *nostr.Event) (stop bool)) (err error) {

	nf := f.Filter
	nf.Search = ""
	nf.Tags = indexedTags(f.Tags)
	nf.Limit = b.PageSize
	single := false
	if len(f.IDs) > 0 {
		// only canonical ids can be stored, the rest can't match
		nf.IDs = nil
		for _, idHex := range f.IDs {
			if store.IsHex32(idHex) {
				nf.IDs = append(nf.IDs, idHex)
			}
		}
		if len(nf.IDs) == 0 {
			return
		}
		// id lookups don't page by time, one pass returns them all
		nf.Limit = len(nf.IDs)
		single = true
	}
	var cursor nostr.Timestamp = math.MaxInt64
	if f.Until != nil {
		cursor = *f.Until
	}
	seen := make(map[string]struct{})
	for {
		if err = c.Err(); err != nil {
			return
		}
		u := cursor
		nf.Until = &u
		var raw, fresh int
		var oldest nostr.Timestamp
		var stop bool
		if raw, fresh, oldest, stop, err = page(c, db, nf, f, seen,
			fn); err != nil || stop {
			return
		}
		if single || raw < nf.Limit {
			return
		}
		if fresh > 0 {
			cursor = oldest
			continue
		}
		tf := nf
		tf.Since, tf.Until = &cursor, &cursor
		for tf.Limit = 2 * nf.Limit; ; tf.Limit *= 2 {
			if err = c.Err(); err != nil {
				return
			}
			if raw, _, _, stop, err = page(c, db, tf, f, seen,
				fn); err != nil || stop {
				return
			}
			if raw < tf.Limit {
				break
			}
		}
		// timestamps are unsigned in the wrapped store
		if cursor <= 0 || (f.Since != nil && cursor <= *f.Since) {
			return
		}
		cursor--
	}
}

func (b *Backend) Query(c context.Context, f *filter.T) (evs []*nostr.Event,
	err error) {

	if f == nil {
		f = filter.MatchAll()
	}
	err = b.read(func(db *badger.BadgerBackend) (err error) {
		return b.walk(c, db, f, func(ev *nostr.Event) (stop bool) {
			evs = append(evs, ev)
			return
		})
	})
	if err != nil {
		return nil, err
	}
	store.SortEvents(evs)
	if f.Limit > 0 && len(evs) > f.Limit {
		evs = evs[:f.Limit]
	}
	return
}

func (b *Backend) QueryFilters(c context.Context, fs filter.S) (
	evs []*nostr.Event, err error) {

	lists := make([][]*nostr.Event, 0, len(fs))
	for _, f := range fs {
		var l []*nostr.Event
		if l, err = b.Query(c, f); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return store.Union(lists...), nil
}

// maxTagValue is the longest tag value the wrapped store indexes; empty
// values are not indexed either.
const maxTagValue = 100

func tagIndexed(v string) bool { return len(v) > 0 && len(v) <= maxTagValue }

// indexedTags drops the tag constraints the wrapped store can't answer from
// its index. The matches are checked again afterwards so dropping one only
// widens the underlying query.
func indexedTags(tm nostr.TagMap) (out nostr.TagMap) {
	for name, values := range tm {
		ok := true
		for _, v := range values {
			if !tagIndexed(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if out == nil {
			out = make(nostr.TagMap, len(tm))
		}
		out[name] = values
	}
	return
}

// native reports whether the wrapped store can evaluate f by itself.
func native(f *filter.T) bool {
	if len(f.IDs) > 0 || f.Until != nil || f.Search != "" {
		return false
	}
	if len(indexedTags(f.Tags)) != len(f.Tags) {
		return false
	}
	for _, v := range f.TagsAll {
		if len(v) > 0 {
			return false
		}
	}
	for name, v := range f.Tags {
		if len(name) != 1 && len(v) > 0 {
			return false
		}
	}
	return true
}

func (b *Backend) Count(c context.Context, f *filter.T) (n int64, err error) {
	if f == nil {
		f = filter.MatchAll()
	}
	err = b.read(func(db *badger.BadgerBackend) (err error) {
		if native(f) {
			nf := f.Filter
			nf.Limit = 0
			n, err = db.CountEvents(c, nf)
			return
		}
		return b.walk(c, db, f, func(ev *nostr.Event) (stop bool) {
			n++
			return
		})
	})
	if err != nil {
		return 0, err
	}
	return
}

// Delete collects the matches first and then removes them one at a time.
func (b *Backend) Delete(c context.Context, f *filter.T) (n int, err error) {
	if f == nil {
		f = filter.MatchAll()
	}
	err = b.read(func(db *badger.BadgerBackend) (err error) {
		var doomed []*nostr.Event
		if err = b.walk(c, db, f, func(ev *nostr.Event) (stop bool) {
			doomed = append(doomed, ev)
			return
		}); chk.E(err) {
			return
		}
		for _, ev := range doomed {
			if err = db.DeleteEvent(c, ev); chk.E(err) {
				return
			}
			n++
		}
		return
	})
	return
}

// Wipe drops every key and reopens the store so the event sequence starts
// again from an empty keyspace.
func (b *Backend) Wipe() (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.db == nil {
		return store.ErrNotOpen
	}
	if err = b.db.DropAll(); chk.E(err) {
		return
	}
	b.db.Close()
	db := &badger.BadgerBackend{Path: b.path, MaxLimit: noLimit}
	if err = db.Init(); chk.E(err) {
		b.db = nil
		return
	}
	b.db = db
	return
}

func (b *Backend) Compact() (err error) {
	return b.read(func(db *badger.BadgerBackend) (err error) {
		for {
			if err = db.RunValueLogGC(0.5); err != nil {
				break
			}
		}
		if errors.Is(err, badgerdb.ErrNoRewrite) ||
			errors.Is(err, badgerdb.ErrRejected) {
			err = nil
		}
		return
	})
}
