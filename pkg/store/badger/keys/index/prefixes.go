// Package index holds the key prefixes of the event store and the layout of
// each key type.
package index

import (
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/createdat"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/id"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/kinder"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/pubkey"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/tagval"
)

type P byte

// Key writes a key with the P prefix byte and an arbitrary list of
// keys.Element.
func (p P) Key(element ...keys.Element) (b []byte) {
	return keys.Write(append([]keys.Element{New(p)}, element...)...)
}

// B returns the index.P as a byte.
func (p P) B() byte { return byte(p) }

// I returns the index.P as an int (for use with KeySizes).
func (p P) I() int { return int(p) }

const (
	// Event is the raw event record, keyed by the serial from the badger
	// sequence. The value is the event JSON.
	//
	//   [ 0 ][ 8 bytes Serial ]
	Event P = iota

	// CreatedAt orders every event by time.
	//
	//   [ 1 ][ 8 bytes timestamp ][ 8 bytes Serial ]
	CreatedAt

	// Id maps the full event id to its serial.
	//
	//   [ 2 ][ 32 bytes id ][ 8 bytes Serial ]
	Id

	// Kind contains the kind and timestamp.
	//
	//   [ 3 ][ 2 bytes kind ][ 8 bytes timestamp ][ 8 bytes Serial ]
	Kind

	// Pubkey contains pubkey prefix and timestamp.
	//
	//   [ 4 ][ 8 bytes pubkey prefix ][ 8 bytes timestamp ][ 8 bytes Serial ]
	Pubkey

	// PubkeyKind contains pubkey prefix, kind and timestamp.
	//
	//   [ 5 ][ 8 bytes pubkey prefix ][ 2 bytes kind ][ 8 bytes timestamp ][ 8 bytes Serial ]
	PubkeyKind

	// Tag contains the single letter tag name and a hash prefix of the tag
	// value, then timestamp.
	//
	//   [ 6 ][ 1 byte name ][ 8 bytes value hash ][ 8 bytes timestamp ][ 8 bytes Serial ]
	Tag

	// Refs lists every index key written for the event so deletes never have
	// to decode the event to find them. The value is the keys, each preceded
	// by its length as one byte.
	//
	//   [ 7 ][ 8 bytes Serial ]
	Refs
)

// KeySizes are the byte size of keys of each type of key prefix, indexed by
// P.I().
var KeySizes = []int{
	// Event
	1 + serial.Len,
	// CreatedAt
	1 + createdat.Len + serial.Len,
	// Id
	1 + id.Len + serial.Len,
	// Kind
	1 + kinder.Len + createdat.Len + serial.Len,
	// Pubkey
	1 + pubkey.Len + createdat.Len + serial.Len,
	// PubkeyKind
	1 + pubkey.Len + kinder.Len + createdat.Len + serial.Len,
	// Tag
	1 + tagval.Len + createdat.Len + serial.Len,
	// Refs
	1 + serial.Len,
}

// ValidKey reports whether k starts with a known prefix and has the length of
// that key type.
func ValidKey(k []byte) bool {
	return len(k) > 0 && int(k[0]) < len(KeySizes) && len(k) == KeySizes[k[0]]
}
