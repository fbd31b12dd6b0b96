package kinder

import (
	"bytes"
	"encoding/binary"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
)

const Len = 2

type T struct {
	Val uint16
}

var _ keys.Element = &T{}

func New[V int | uint16](c V) (p *T) { return &T{Val: uint16(c)} }

func (c *T) Write(buf *bytes.Buffer) {
	b := make([]byte, Len)
	binary.BigEndian.PutUint16(b, c.Val)
	buf.Write(b)
}

func (c *T) Read(buf *bytes.Buffer) (el keys.Element) {
	b := make([]byte, Len)
	if n, err := buf.Read(b); err != nil || n != Len {
		return nil
	}
	c.Val = binary.BigEndian.Uint16(b)
	return c
}

func (c *T) Len() int { return Len }
