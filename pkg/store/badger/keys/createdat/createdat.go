package createdat

import (
	"bytes"
	"encoding/binary"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/nbd-wtf/go-nostr"
)

const Len = 8

// flip moves the sign bit so that big endian byte order sorts negative
// timestamps before positive ones.
const flip = uint64(1) << 63

type T struct {
	Val nostr.Timestamp
}

var _ keys.Element = &T{}

func New(c nostr.Timestamp) (p *T) { return &T{Val: c} }

// FromKey reads the timestamp that sits immediately before the serial at the
// end of an index key.
func FromKey(k []byte) (p *T) {
	if len(k) < Len+serial.Len {
		panic("cannot get a timestamp from a key shorter than 16 bytes")
	}
	b := k[len(k)-serial.Len-Len : len(k)-serial.Len]
	return &T{Val: Decode(b)}
}

// Encode returns the order preserving form of a timestamp.
func Encode(ts nostr.Timestamp) (b []byte) {
	b = make([]byte, Len)
	binary.BigEndian.PutUint64(b, uint64(ts)^flip)
	return
}

func Decode(b []byte) nostr.Timestamp {
	return nostr.Timestamp(int64(binary.BigEndian.Uint64(b) ^ flip))
}

func (c *T) Write(buf *bytes.Buffer) { buf.Write(Encode(c.Val)) }

func (c *T) Read(buf *bytes.Buffer) (el keys.Element) {
	b := make([]byte, Len)
	if n, err := buf.Read(b); err != nil || n != Len {
		return nil
	}
	c.Val = Decode(b)
	return c
}

func (c *T) Len() int { return Len }
