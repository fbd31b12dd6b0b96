package ingest

import (
	"github.com/puzpuzpuz/xsync/v2"
)

// counters are updated from producers and the consumer without a lock.
type counters struct {
	enqueued  *xsync.Counter
	rejected  *xsync.Counter
	evicted   *xsync.Counter
	written   *xsync.Counter
	duplicate *xsync.Counter
	failed    *xsync.Counter
}

func newCounters() *counters {
	return &counters{
		enqueued:  xsync.NewCounter(),
		rejected:  xsync.NewCounter(),
		evicted:   xsync.NewCounter(),
		written:   xsync.NewCounter(),
		duplicate: xsync.NewCounter(),
		failed:    xsync.NewCounter(),
	}
}

// Stats is a snapshot of the pipeline counters since it was created.
type Stats struct {
	// Enqueued events were admitted into the queue.
	Enqueued int64
	// Rejected events were refused by the kind policy.
	Rejected int64
	// Evicted events were pushed out of a full queue before being written.
	Evicted int64
	// Written events were newly stored.
	Written int64
	// Duplicate events were already in the store.
	Duplicate int64
	// Failed events could not be written.
	Failed int64
	// Depth is the number of events waiting in the queue.
	Depth int
}

func (c *counters) snapshot(depth int) Stats {
	return Stats{
		Enqueued:  c.enqueued.Value(),
		Rejected:  c.rejected.Value(),
		Evicted:   c.evicted.Value(),
		Written:   c.written.Value(),
		Duplicate: c.duplicate.Value(),
		Failed:    c.failed.Value(),
		Depth:     depth,
	}
}
