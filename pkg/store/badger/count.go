package badger

import (
	"context"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
)

// Count returns the number of matches. When the chosen index decides the
// filter alone the event records are not read.
func (b *Backend) Count(c context.Context, f *filter.T) (n int64, err error) {
	if f == nil {
		f = filter.MatchAll()
	}
	p := PrepareQueries(f)
	err = b.read(func(db *badger.DB) (err error) {
		return db.View(func(txn *badger.Txn) (err error) {
			return p.scan(c, txn, func(ser *serial.T,
				_ nostr.Timestamp) (stop bool, err error) {

				if p.exact {
					n++
					return
				}
				var ev *nostr.Event
				if ev, err = getEvent(txn, ser); err != nil || ev == nil {
					return
				}
				if f.Matches(ev) {
					n++
				}
				return
			})
		})
	})
	if err != nil {
		return 0, err
	}
	return
}
