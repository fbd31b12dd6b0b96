package index_test

import (
	"bytes"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/createdat"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/kinder"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
)

func TestT(t *testing.T) {
	v := index.New(index.Kind)
	buf := new(bytes.Buffer)
	v.Write(buf)
	el := index.New(0).Read(bytes.NewBuffer(buf.Bytes())).(*index.T)
	if el.Val != byte(index.Kind) {
		t.Fatalf("expected %d got %d", index.Kind, el.Val)
	}
}

func TestKeySizes(t *testing.T) {
	k := index.Kind.Key(kinder.New(1), createdat.New(100), serial.New(serial.Make(3)))
	if len(k) != index.KeySizes[index.Kind.I()] {
		t.Fatalf("expected key length %d got %d",
			index.KeySizes[index.Kind.I()], len(k))
	}
	if len(index.KeySizes) != index.Refs.I()+1 {
		t.Fatalf("%d key sizes for %d prefixes", len(index.KeySizes),
			index.Refs.I()+1)
	}
	p, ki, ca, se := index.New(0), kinder.New(0), createdat.New(0), serial.New(nil)
	if !keys.Read(k, p, ki, ca, se) {
		t.Fatal("failed to read back key")
	}
	if ki.Val != 1 || ca.Val != 100 || se.Uint64() != 3 {
		t.Fatalf("read back %d %d %d", ki.Val, ca.Val, se.Uint64())
	}
}

func TestValidKey(t *testing.T) {
	k := index.Kind.Key(kinder.New(1), createdat.New(100), serial.New(serial.Make(3)))
	if !index.ValidKey(k) {
		t.Fatalf("expected %x to be valid", k)
	}
	for _, bad := range [][]byte{
		nil,
		k[:len(k)-1],
		append([]byte{byte(index.Refs) + 1}, k[1:]...),
		index.Event.Key(),
	} {
		if index.ValidKey(bad) {
			t.Fatalf("expected %x to be invalid", bad)
		}
	}
}
