package pubkey

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
)

// Len is the pubkey prefix stored in indexes. Collisions are resolved by
// checking the event itself.
const Len = 8

type T struct {
	Val []byte
}

var _ keys.Element = &T{}

// New takes the first Len bytes of a hex pubkey.
func New(pk ...string) (p *T) {
	if len(pk) < 1 || len(pk[0]) < Len*2 {
		return &T{make([]byte, Len)}
	}
	b, err := hex.DecodeString(pk[0][:Len*2])
	if err != nil {
		return &T{make([]byte, Len)}
	}
	return &T{Val: b}
}

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
