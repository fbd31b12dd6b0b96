package id

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
)

// Len is the full event id so lookups by id never need to load the event.
const Len = 32

type T struct {
	Val []byte
}

var _ keys.Element = &T{}

// New decodes a hex event id. An empty or invalid id gives a zeroed element
// ready for Read.
func New(evID ...string) (p *T) {
	if len(evID) < 1 || len(evID[0]) != Len*2 {
		return &T{make([]byte, Len)}
	}
	b, err := hex.DecodeString(evID[0])
	if err != nil {
		return &T{make([]byte, Len)}
	}
	return &T{Val: b}
}

// Parse decodes an id in canonical lowercase hex, anything else is an error.
func Parse(evID string) (p *T, err error) {
	if len(evID) != Len*2 || strings.ToLower(evID) != evID {
		return nil, fmt.Errorf("invalid event id %q", evID)
	}
	var b []byte
	if b, err = hex.DecodeString(evID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", evID, err)
	}
	return &T{Val: b}, nil
}

func (p *T) String() string { return hex.EncodeToString(p.Val) }

func (p *T) Write(buf *bytes.Buffer) {
	if len(p.Val) != Len {
		panic(fmt.Sprintln("must use New or initialize Val with len", Len))
	}
	buf.Write(p.Val)
}

func (p *T) Read(buf *bytes.Buffer) (el keys.Element) {
	// allow uninitialized struct
	if len(p.Val) != Len {
		p.Val = make([]byte, Len)
	}
	if n, err := buf.Read(p.Val); err != nil || n != Len {
		return nil
	}
	return p
}

func (p *T) Len() int { return Len }
