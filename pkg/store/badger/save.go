package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/id"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
)

// Insert writes the event, its index keys and its Refs record in one
// transaction.
func (b *Backend) Insert(c context.Context, ev *nostr.Event) (ok bool,
	err error) {

	if err = store.ValidateEvent(ev); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrWriteFailure, err)
	}
	err = b.read(func(db *badger.DB) (err error) {
		if err = c.Err(); err != nil {
			return
		}
		return db.Update(func(txn *badger.Txn) (err error) {
			// query event by id to ensure we don't save duplicates
			prefix := index.Id.Key(id.New(ev.ID))
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			it.Seek(prefix)
			found := it.ValidForPrefix(prefix)
			it.Close()
			if found {
				return
			}
			var bin []byte
			if bin, err = ev.MarshalJSON(); chk.E(err) {
				return
			}
			idx, ser, err := b.SerialKey()
			if err != nil {
				return
			}
			// raw event store
			if err = txn.Set(idx, bin); chk.D(err) {
				return
			}
			keyz := GetIndexKeysForEvent(ev, ser)
			for _, k := range keyz {
				if err = txn.Set(k, nil); chk.D(err) {
					return
				}
			}
			if err = txn.Set(index.Refs.Key(ser), encodeRefs(keyz)); chk.D(err) {
				return
			}
			ok = true
			log.T.F("saved event %s serial %d", ev.ID, ser.Uint64())
			return
		})
	})
	switch {
	case errors.Is(err, store.ErrNotOpen):
	case err != nil:
		ok = false
		err = fmt.Errorf("%w: %s: %w", store.ErrWriteFailure, ev.ID, err)
	}
	return
}

// InsertBatch inserts each event in its own transaction so one failure does
// not roll back the others.
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
