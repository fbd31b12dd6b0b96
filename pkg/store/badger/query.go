package badger

import (
	"container/heap"
	"context"
	"errors"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
)

// candidateFunc receives index hits newest first, de-duplicated by serial.
// ts is zero for id lookups.
type candidateFunc func(ser *serial.T, ts nostr.Timestamp) (stop bool,
	err error)

// ordered reports whether candidates arrive in timestamp order.
func (p *plan) ordered() bool {
	for _, q := range p.queries {
		if q.skipTS {
			return false
		}
	}
	return true
}

// scan walks every query of the plan in reverse and merges them through a
// heap so the caller sees the newest candidate first.
func (p *plan) scan(c context.Context, txn *badger.Txn,
	fn candidateFunc) (err error) {

	pq := make(PriorityQueue, 0, len(p.queries))
	for i := range p.queries {
		q := &p.queries[i]
		it := txn.NewIterator(badger.IteratorOptions{
			Reverse: true,
			Prefix:  q.searchPrefix,
		})
		defer it.Close()
		it.Seek(q.start)
		cu := &cursor{q: q, it: it}
		if cu.load(p.since) {
			pq = append(pq, cu)
		}
	}
	heap.Init(&pq)
	seen := make(map[uint64]struct{})
	for pq.Len() > 0 {
		if err = c.Err(); err != nil {
			return
		}
		top := pq[0]
		ser, ts := top.ser, top.ts
		if top.next(p.since) {
			heap.Fix(&pq, 0)
		} else {
			heap.Pop(&pq)
		}
		if _, ok := seen[ser.Uint64()]; ok {
			continue
		}
		seen[ser.Uint64()] = struct{}{}
		var stop bool
		if stop, err = fn(ser, ts); err != nil || stop {
			return
		}
	}
	return
}

// getEvent loads and decodes the event record of a serial. A missing record
// gives a nil event and no error.
func getEvent(txn *badger.Txn, ser *serial.T) (ev *nostr.Event, err error) {
	var item *badger.Item
	if item, err = txn.Get(index.Event.Key(ser)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			log.W.F("index points at missing event serial %d", ser.Uint64())
			err = nil
		}
		return
	}
	var v []byte
	if v, err = item.ValueCopy(nil); chk.E(err) {
		return
	}
	ev = &nostr.Event{}
	if err = ev.UnmarshalJSON(v); chk.E(err) {
		return nil, err
	}
	return
}

// Query returns the matching events newest first, ties broken by id, capped
// at the filter limit when it is positive.
func (b *Backend) Query(c context.Context, f *filter.T) (evs []*nostr.Event,
	err error) {

	if f == nil {
		f = filter.MatchAll()
	}
	p := PrepareQueries(f)
	limit := f.Limit
	err = b.read(func(db *badger.DB) (err error) {
		return db.View(func(txn *badger.Txn) (err error) {
			ordered := p.ordered()
			return p.scan(c, txn, func(ser *serial.T,
				ts nostr.Timestamp) (stop bool, err error) {

				// keep taking events sharing the timestamp of the last one
				// inside the limit so the id tie break is stable
				if ordered && limit > 0 && len(evs) >= limit &&
					ts < evs[limit-1].CreatedAt {
					return true, nil
				}
				var ev *nostr.Event
				if ev, err = getEvent(txn, ser); err != nil || ev == nil {
					return
				}
				if f.Matches(ev) {
					evs = append(evs, ev)
				}
				return
			})
		})
	})
	if err != nil {
		return nil, err
	}
	store.SortEvents(evs)
	if limit > 0 && len(evs) > limit {
		evs = evs[:limit]
	}
	return
}

// QueryFilters unions the results of each filter, de-duplicated by id in
// first seen order.
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
