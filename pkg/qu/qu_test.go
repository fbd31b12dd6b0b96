package qu

import (
	"testing"
	"time"
)

func TestSignalCoalesces(t *testing.T) {
	c := Ts(1)
	c.Signal()
	c.Signal()
	c.Signal()
	select {
	case <-c.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected a pending signal")
	}
	select {
	case <-c.Wait():
		t.Fatal("signals were not coalesced")
	default:
	}
}

func TestQuitIdempotent(t *testing.T) {
	c := T()
	if c.IsClosed() {
		t.Fatal("new channel reported closed")
	}
	c.Q()
	c.Q()
	if !c.IsClosed() {
		t.Fatal("channel not closed after Q")
	}
	// signalling a closed channel must not panic
	c.Signal()
}
