// Package badger is the native record store: events are kept as JSON under a
// monotonic serial and found through composite index keys.
package badger

import (
	"errors"
	"os"
	"sync"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/Hubmakerlabs/localstr/pkg/units"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

var log, chk = slog.New(os.Stderr)

var (
	_ store.I         = (*Backend)(nil)
	_ store.Compactor = (*Backend)(nil)
)

type Backend struct {
	// BlockCacheSize is handed to badger, zero leaves its default.
	BlockCacheSize int64
	// LogLevel is the most verbose badger message forwarded to the logger.
	LogLevel int

	// mx guards db and seq. Operations hold it shared, Open, Close and Wipe
	// hold it exclusively.
	mx   sync.RWMutex
	path string
	db   *badger.DB
	// seq is the monotonic collision free index for raw event storage.
	seq *badger.Sequence
}

// New returns a Backend that still needs Open.
func New() (b *Backend) { return &Backend{LogLevel: slog.Warn} }

func (b *Backend) Open(path string) (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err = os.MkdirAll(path, 0700); chk.E(err) {
		return
	}
	log.I.Ln("opening badger event store at", path)
	opts := badger.DefaultOptions(path)
	if b.BlockCacheSize > 0 {
		opts.BlockCacheSize = b.BlockCacheSize
	}
	opts.BlockSize = units.Mb
	opts.CompactL0OnClose = true
	opts.LmaxCompaction = true
	opts.Compression = options.ZSTD
	opts.Logger = logger{Level: b.LogLevel, Label: path}
	if b.db, err = badger.Open(opts); chk.E(err) {
		return
	}
	log.D.Ln("getting event store sequence index", path)
	if err = b.acquireSequence(); err != nil {
		return
	}
	b.path = path
	return
}

// acquireSequence leases the serial sequence. Without one no event can be
// written, so on failure the handle is closed and the store reports
// ErrNotOpen from then on. The caller holds the write lock.
func (b *Backend) acquireSequence() (err error) {
	if b.seq, err = b.db.GetSequence([]byte("events"), 1000); chk.E(err) {
		b.seq = nil
		chk.E(b.db.Close())
		b.db = nil
	}
	return
}

func (b *Backend) Close() (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.db == nil {
		return
	}
	log.I.Ln("closing badger event store at", b.path)
	if b.seq != nil {
		chk.E(b.seq.Release())
		b.seq = nil
	}
	err = b.db.Close()
	b.db = nil
	return
}

func (b *Backend) Path() (s string) {
	b.mx.RLock()
	defer b.mx.RUnlock()
	return b.path
}

// Wipe drops every key and restarts the serial sequence. The sequence is
// leased again even when the drop fails.
func (b *Backend) Wipe() (err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.db == nil {
		return store.ErrNotOpen
	}
	if b.seq != nil {
		if err = b.seq.Release(); chk.E(err) {
			return
		}
		b.seq = nil
	}
	dropErr := b.db.DropAll()
	chk.E(dropErr)
	if err = b.acquireSequence(); err != nil {
		return
	}
	return dropErr
}

// Compact runs value log garbage collection until there is nothing left to
// rewrite.
func (b *Backend) Compact() (err error) {
	return b.read(func(db *badger.DB) (err error) {
		for {
			if err = db.RunValueLogGC(0.5); err != nil {
				break
			}
		}
		if errors.Is(err, badger.ErrNoRewrite) ||
			errors.Is(err, badger.ErrRejected) {
			err = nil
		}
		return
	})
}

// read runs fn with the db handle while holding the shared lock.
func (b *Backend) read(fn func(db *badger.DB) (err error)) (err error) {
	b.mx.RLock()
	defer b.mx.RUnlock()
	if b.db == nil {
		return store.ErrNotOpen
	}
	return fn(b.db)
}

// SerialKey returns a key used for storing events, and the raw serial counter
// bytes to copy into index keys.
func (b *Backend) SerialKey() (idx []byte, ser *serial.T, err error) {
	if b.seq == nil {
		return nil, nil, store.ErrNotOpen
	}
	var s uint64
	if s, err = b.seq.Next(); chk.E(err) {
		return
	}
	ser = serial.New(serial.Make(s))
	return index.Event.Key(ser), ser, nil
}
