// Package store defines the Record Store contract shared by the storage
// backends, the error taxonomy and on-disk size measurement.
package store

import (
	"context"
	"fmt"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/exp/slices"
)

// I is a persistence layer for nostr events kept as a bounded local cache.
//
// Every method except Open and Close returns ErrNotOpen when called on a store
// that is not open.
type I interface {
	// Open creates the directory at path if it is missing and opens the
	// engine there. Opening an already open store is undefined.
	Open(path string) (err error)
	// Insert writes one event. ok is false for duplicates (with a nil err)
	// and for rejected events (with an err wrapping ErrWriteFailure). A
	// record is never partially written.
	Insert(c context.Context, ev *nostr.Event) (ok bool, err error)
	// InsertBatch inserts each event independently and returns how many were
	// newly written. One failure does not stop the rest.
	InsertBatch(c context.Context, evs []*nostr.Event) (n int)
	// Query returns every match, newest first, capped by the filter limit.
	Query(c context.Context, f *filter.T) (evs []*nostr.Event, err error)
	// QueryFilters unions the results of several filters, de-duplicated by
	// id, in first-seen order.
	QueryFilters(c context.Context, fs filter.S) (evs []*nostr.Event, err error)
	// Count returns the number of matches without returning them.
	Count(c context.Context, f *filter.T) (n int64, err error)
	// Delete removes all matches and returns how many were removed.
	Delete(c context.Context, f *filter.T) (n int, err error)
	// Wipe removes everything.
	Wipe() (err error)
	// Close releases the engine. Closing a closed store is a no-op.
	Close() (err error)
	// Path returns the directory the store was opened at.
	Path() (s string)
}

// Compactor is implemented by stores that can reclaim space freed by deletes.
type Compactor interface {
	Compact() (err error)
}

// ValidateEvent checks the fields the stores index on. ID and PubKey must be
// 32 bytes of hex and the kind must fit in 16 bits.
func ValidateEvent(ev *nostr.Event) (err error) {
	if ev == nil {
		return fmt.Errorf("%w: nil event", ErrMalformed)
	}
	if !IsHex32(ev.ID) {
		return fmt.Errorf("%w: id %q is not 64 lowercase hex characters",
			ErrMalformed, ev.ID)
	}
	if !IsHex32(ev.PubKey) {
		return fmt.Errorf("%w: pubkey %q is not 64 lowercase hex characters",
			ErrMalformed, ev.PubKey)
	}
	if ev.Kind < 0 || ev.Kind > kind.Max {
		return fmt.Errorf("%w: kind %d out of range", ErrMalformed, ev.Kind)
	}
	return
}

// IsHex32 accepts only the canonical lowercase hex of 32 bytes, so ids
// compare equal as strings exactly when their bytes do.
func IsHex32(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Union merges result lists de-duplicated by id, keeping the first occurrence.
func Union(lists ...[]*nostr.Event) (evs []*nostr.Event) {
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, ev := range l {
			if _, ok := seen[ev.ID]; ok {
				continue
			}
			seen[ev.ID] = struct{}{}
			evs = append(evs, ev)
		}
	}
	return
}

// SortEvents orders events by created_at descending then id ascending.
func SortEvents(evs []*nostr.Event) {
	slices.SortStableFunc(evs, func(a, b *nostr.Event) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
