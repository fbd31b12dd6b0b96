package badger

import (
	"bytes"
	"fmt"

	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/createdat"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/id"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/kinder"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/pubkey"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/tagval"
	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/exp/slices"
)

// GetIndexKeysForEvent generates all the index keys required to filter for
// events. ser should come from the event sequence, a unique monotonic counter
// value for each new event.
func GetIndexKeysForEvent(ev *nostr.Event, ser *serial.T) (keyz [][]byte) {
	keyz = make([][]byte, 0, 6+len(ev.Tags))
	ID := id.New(ev.ID)
	CA := createdat.New(ev.CreatedAt)
	K := kinder.New(ev.Kind)
	PK := pubkey.New(ev.PubKey)
	// ~ by id
	keyz = append(keyz, index.Id.Key(ID, ser))
	// ~ by pubkey+date
	keyz = append(keyz, index.Pubkey.Key(PK, CA, ser))
	// ~ by kind+date
	keyz = append(keyz, index.Kind.Key(K, CA, ser))
	// ~ by pubkey+kind+date
	keyz = append(keyz, index.PubkeyKind.Key(PK, K, CA, ser))
	// ~ by date only
	keyz = append(keyz, index.CreatedAt.Key(CA, ser))
	// ~ by tag value + date, empty values included
	var tagKeys [][]byte
	for _, t := range ev.Tags {
		if !tagval.Indexable(t) {
			continue
		}
		tagKeys = append(tagKeys,
			index.Tag.Key(tagval.New(t[0][0], t[1]), CA, ser))
	}
	slices.SortFunc(tagKeys, bytes.Compare)
	keyz = append(keyz, slices.CompactFunc(tagKeys, bytes.Equal)...)
	return
}

// encodeRefs packs index keys into the value of a Refs record, each key
// preceded by its length.
func encodeRefs(keyz [][]byte) (b []byte) {
	var n int
	for _, k := range keyz {
		n += 1 + len(k)
	}
	b = make([]byte, 0, n)
	for _, k := range keyz {
		b = append(b, byte(len(k)))
		b = append(b, k...)
	}
	return
}

func decodeRefs(b []byte) (keyz [][]byte, err error) {
	for len(b) > 0 {
		l := int(b[0])
		if len(b) < 1+l {
			return nil, fmt.Errorf("truncated refs record")
		}
		k := b[1 : 1+l]
		if !index.ValidKey(k) {
			return nil, fmt.Errorf("invalid index key %x in refs record", k)
		}
		keyz = append(keyz, k)
		b = b[1+l:]
	}
	return
}
