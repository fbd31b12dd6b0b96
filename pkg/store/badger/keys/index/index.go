package index

import (
	"bytes"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
)

const Len = 1

// T is the prefix byte as a keys.Element.
type T struct {
	Val byte
}

var _ keys.Element = &T{}

func New[V byte | P | int](code V) (p *T) { return &T{Val: byte(code)} }

func (p *T) Write(buf *bytes.Buffer) { buf.WriteByte(p.Val) }

func (p *T) Read(buf *bytes.Buffer) (el keys.Element) {
	var err error
	if p.Val, err = buf.ReadByte(); err != nil {
		return nil
	}
	return p
}

func (p *T) Len() int { return Len }
