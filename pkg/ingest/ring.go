package ingest

import (
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// ring is a fixed capacity FIFO that evicts its oldest entry to make room.
// A shut ring is empty and refuses pushes.
type ring struct {
	mx     sync.Mutex
	buf    []*nostr.Event
	head   int
	n      int
	isShut bool
}

// newRing returns a shut ring, open it to accept events.
func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]*nostr.Event, capacity), isShut: true}
}

// push appends ev, evicting and returning the head when full. ok is false
// when the ring is shut.
func (r *ring) push(ev *nostr.Event) (evicted *nostr.Event, ok bool) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.isShut {
		return
	}
	if r.n == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = nil
		r.head = (r.head + 1) % len(r.buf)
		r.n--
	}
	r.buf[(r.head+r.n)%len(r.buf)] = ev
	r.n++
	return evicted, true
}

func (r *ring) pop() (ev *nostr.Event, ok bool) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.n == 0 {
		return
	}
	ev = r.buf[r.head]
	r.buf[r.head] = nil
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return ev, true
}

func (r *ring) len() int {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.n
}

// open empties the ring and starts accepting pushes.
func (r *ring) open() {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.drop()
	r.isShut = false
}

// shut drops everything queued and refuses pushes until the next open.
func (r *ring) shut() (dropped int) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.isShut = true
	return r.drop()
}

func (r *ring) drop() (dropped int) {
	dropped = r.n
	clear(r.buf)
	r.head, r.n = 0, 0
	return
}
