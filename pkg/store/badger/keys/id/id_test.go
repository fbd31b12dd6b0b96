package id_test

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/id"
	"lukechampine.com/frand"
)

func TestT(t *testing.T) {
	fakeIdHex := hex.EncodeToString(frand.Bytes(id.Len))
	v := id.New(fakeIdHex)
	buf := new(bytes.Buffer)
	v.Write(buf)
	buf2 := bytes.NewBuffer(buf.Bytes())
	v2 := id.New()
	el := v2.Read(buf2).(*id.T)
	if el.String() != fakeIdHex {
		t.Fatalf("expected %s got %s", fakeIdHex, el.String())
	}
}

func TestInvalid(t *testing.T) {
	v := id.New("zz")
	if len(v.Val) != id.Len || !bytes.Equal(v.Val, make([]byte, id.Len)) {
		t.Fatalf("expected zeroed id, got %x", v.Val)
	}
}

func TestParse(t *testing.T) {
	idHex := hex.EncodeToString(frand.Bytes(id.Len))
	v, err := id.Parse(idHex)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != idHex {
		t.Fatalf("expected %s got %s", idHex, v.String())
	}
	for _, bad := range []string{
		"", "nothex", strings.Repeat("zz", id.Len),
		strings.ToUpper(idHex), idHex[:62],
	} {
		if _, err = id.Parse(bad); err == nil {
			t.Fatalf("expected error parsing %q", bad)
		}
	}
}
