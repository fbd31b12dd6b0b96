package badger

import (
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/createdat"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/serial"
	"github.com/dgraph-io/badger/v4"
	"github.com/nbd-wtf/go-nostr"
)

// cursor is one reverse index scan positioned on its current key.
type cursor struct {
	q   *query
	it  *badger.Iterator
	ts  nostr.Timestamp
	ser *serial.T
}

// load reads the current key, false when the scan is exhausted or passed
// since.
func (cu *cursor) load(since nostr.Timestamp) bool {
	if !cu.it.ValidForPrefix(cu.q.searchPrefix) {
		return false
	}
	k := cu.it.Item().KeyCopy(nil)
	if len(k) < len(cu.q.searchPrefix)+serial.Len {
		return false
	}
	cu.ser = serial.FromKey(k)
	if !cu.q.skipTS {
		if cu.ts = createdat.FromKey(k).Val; cu.ts < since {
			return false
		}
	}
	return true
}

func (cu *cursor) next(since nostr.Timestamp) bool {
	cu.it.Next()
	return cu.load(since)
}

type PriorityQueue []*cursor

func (pq PriorityQueue) Len() int { return len(pq) }

// Less returns whether cursor i is on a newer (greater) key than j, reverse
// chronological order, the first result will be the newest.
func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].ts != pq[j].ts {
		return pq[i].ts > pq[j].ts
	}
	return pq[i].ser.Uint64() > pq[j].ser.Uint64()
}

func (pq PriorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *PriorityQueue) Push(x any) { *pq = append(*pq, x.(*cursor)) }

func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*pq = old[0 : n-1]
	return item
}
