package interrupt

import (
	"testing"
	"time"
)

func TestRequestRunsHandlersInReverse(t *testing.T) {
	var order []int
	AddHandler(func() { order = append(order, 1) })
	AddHandler(func() { order = append(order, 2) })
	if Requested() {
		t.Fatal("requested before Request")
	}
	Request()
	Request()
	select {
	case <-HandlersDone.Wait():
	case <-time.After(5 * time.Second):
		t.Fatal("handlers did not run")
	}
	if !Requested() {
		t.Fatal("not marked as requested")
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("expected handlers to run as [2 1], got %v", order)
	}
}
