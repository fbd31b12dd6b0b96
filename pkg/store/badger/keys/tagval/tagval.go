// Package tagval is the index element for a single letter tag: the tag name
// byte followed by a hash prefix of the value.
package tagval

import (
	"bytes"
	"fmt"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
	"github.com/minio/sha256-simd"
)

const (
	HashLen = 8
	Len     = 1 + HashLen
)

type T struct {
	Name byte
	Hash []byte
}

var _ keys.Element = &T{}

// New hashes the value of a tag. Only single letter tag names are indexed,
// Indexable reports whether a tag qualifies.
func New(name byte, value string) (p *T) {
	h := sha256.Sum256([]byte(value))
	return &T{Name: name, Hash: h[:HashLen]}
}

// Indexable reports whether the tag has a single letter name and a value,
// which may be empty.
func Indexable(tag []string) bool {
	return len(tag) >= 2 && len(tag[0]) == 1
}

func (p *T) Write(buf *bytes.Buffer) {
	if len(p.Hash) != HashLen {
		panic(fmt.Sprintln("must use New or initialize Hash with len", HashLen))
	}
	buf.WriteByte(p.Name)
	buf.Write(p.Hash)
}

func (p *T) Read(buf *bytes.Buffer) (el keys.Element) {
	var err error
	if p.Name, err = buf.ReadByte(); err != nil {
		return nil
	}
	p.Hash = make([]byte, HashLen)
	if n, err := buf.Read(p.Hash); err != nil || n != HashLen {
		return nil
	}
	return p
}

func (p *T) Len() int { return Len }
