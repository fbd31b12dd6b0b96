package tagval_test

import (
	"bytes"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/tagval"
)

func TestT(t *testing.T) {
	v := tagval.New('e', "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36")
	buf := new(bytes.Buffer)
	v.Write(buf)
	if buf.Len() != tagval.Len {
		t.Fatalf("expected %d bytes got %d", tagval.Len, buf.Len())
	}
	el := (&tagval.T{}).Read(bytes.NewBuffer(buf.Bytes())).(*tagval.T)
	if el.Name != 'e' || !bytes.Equal(el.Hash, v.Hash) {
		t.Fatalf("expected %c %x got %c %x", v.Name, v.Hash, el.Name, el.Hash)
	}
	if bytes.Equal(tagval.New('e', "a").Hash, tagval.New('e', "b").Hash) {
		t.Fatal("different values hashed the same")
	}
}

func TestIndexable(t *testing.T) {
	for _, c := range []struct {
		tag  []string
		want bool
	}{
		{[]string{"e", "x"}, true},
		{[]string{"e"}, false},
		{[]string{"t", ""}, true},
		{[]string{"expiration", "1"}, false},
		{[]string{"", "x"}, false},
	} {
		if tagval.Indexable(c.tag) != c.want {
			t.Fatalf("%v: expected %v", c.tag, c.want)
		}
	}
}
