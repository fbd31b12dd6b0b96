package badger

import (
	"context"
	"errors"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
)

// Delete removes every event matching f along with its index keys. The limit
// of the filter is ignored. Index keys are found through the Refs record so
// when the index decides the filter alone no event is decoded.
func (b *Backend) Delete(c context.Context, f *filter.T) (n int, err error) {
	if f == nil {
		f = filter.MatchAll()
	}
	p := PrepareQueries(f)
	err = b.read(func(db *badger.DB) (err error) {
		var doomed [][]byte
		if err = db.View(func(txn *badger.Txn) (err error) {
			return p.scan(c, txn, func(ser *serial.T,
				_ nostr.Timestamp) (stop bool, err error) {

				var ev *nostr.Event
				if !p.exact {
					if ev, err = getEvent(txn, ser); err != nil || ev == nil {
						return
					}
					if !f.Matches(ev) {
						return
					}
				}
				var keyz [][]byte
				if keyz, err = refsFor(txn, ser, ev); err != nil {
					return
				}
				doomed = append(doomed, keyz...)
				n++
				return
			})
		}); chk.E(err) {
			return
		}
		if len(doomed) == 0 {
			return
		}
		wb := db.NewWriteBatch()
		defer wb.Cancel()
		for _, k := range doomed {
			if err = wb.Delete(k); chk.E(err) {
				return
			}
		}
		if err = wb.Flush(); chk.E(err) {
			return
		}
		log.D.F("deleted %d events", n)
		return
	})
	if err != nil {
		return 0, err
	}
	return
}

// refsFor lists every key belonging to the event with this serial, including
// the event record and the Refs record. Without a readable Refs record the
// keys are regenerated from the event.
func refsFor(txn *badger.Txn, ser *serial.T, ev *nostr.Event) (keyz [][]byte,
	err error) {

	refsKey := index.Refs.Key(ser)
	keyz = [][]byte{index.Event.Key(ser), refsKey}
	var item *badger.Item
	if item, err = txn.Get(refsKey); err == nil {
		var v []byte
		if v, err = item.ValueCopy(nil); chk.E(err) {
			return
		}
		var refs [][]byte
		if refs, err = decodeRefs(v); err == nil {
			return append(keyz, refs...), nil
		}
		log.W.F("bad refs record for serial %d: %v", ser.Uint64(), err)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return
	}
	err = nil
	log.D.F("regenerating index keys for serial %d", ser.Uint64())
	if ev == nil {
		if ev, err = getEvent(txn, ser); err != nil || ev == nil {
			return
		}
	}
	return append(keyz, GetIndexKeysForEvent(ev, ser)...), nil
}
