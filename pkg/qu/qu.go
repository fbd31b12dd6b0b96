// Package qu provides chan struct{} signalling helpers for quit and wakeup
// channels.
package qu

import (
	"os"
	"sync"

	"github.com/Hubmakerlabs/localstr/pkg/slog"
)

var log, _ = slog.New(os.Stderr)

// C is your basic empty struct signalling channel
type C chan struct{}

// closeMx serializes Q so two closers cannot race each other into a double
// close.
var closeMx sync.Mutex

// T creates an unbuffered chan struct{} for trigger and quit signalling
// (momentary and breaker switches)
func T() C {
	log.T.Ln("created unbuffered signal chan from", slog.GetLoc(2))
	return make(C)
}

// Ts creates a buffered chan struct{} intended for signalling without
// blocking. A buffer of one coalesces any number of pending signals into a
// single wakeup.
func Ts(n int) C {
	log.T.Ln("created buffered signal chan from", slog.GetLoc(2))
	return make(C, n)
}

// Q closes the channel, which makes it emit a nil every time it is selected.
// Closing an already closed channel is a no-op.
func (c C) Q() {
	closeMx.Lock()
	defer closeMx.Unlock()
	if c.IsClosed() {
		return
	}
	close(c)
}

// Signal sends without blocking. If the buffer is full a signal is already
// pending and this one is coalesced into it.
func (c C) Signal() {
	if c == nil {
		return
	}
	defer func() {
		// sending on a closed channel panics; a closed channel is already
		// permanently signalled so there is nothing to do.
		_ = recover()
	}()
	select {
	case c <- struct{}{}:
	default:
	}
}

// Wait should be placed with a `<-` in a select case in addition to the
// channel variable name
func (c C) Wait() <-chan struct{} { return c }

// IsClosed reports whether the channel has been closed. It must only be used on
// unbuffered channels, a pending signal on a buffered channel would be
// consumed by the check.
func (c C) IsClosed() (o bool) {
	if c == nil {
		return true
	}
	select {
	case _, ok := <-c:
		o = !ok
	default:
	}
	return
}
