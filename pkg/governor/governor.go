// Package governor keeps a record store under a size cap by deleting events
// past a retention age that depends on their bucket and on how close the
// store is to the cap.
package governor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/Hubmakerlabs/localstr/pkg/slog"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/nbd-wtf/go-nostr"
)

var log, chk = slog.New(os.Stderr)

// ErrPruneFailure wraps a store failure during a governor pass.
var ErrPruneFailure = errors.New("prune failure")

const (
	Day = 24 * time.Hour
	// NearLimitPercent is the share of the cap above which the moderate tier
	// runs.
	NearLimitPercent = 85
	DefaultInterval  = 6 * time.Hour
)

type Tier int

const (
	Normal Tier = iota
	Moderate
	Aggressive
)

func (t Tier) String() string {
	switch t {
	case Normal:
		return "normal"
	case Moderate:
		return "moderate"
	case Aggressive:
		return "aggressive"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Window deletes the kinds of a bucket, or an explicit kind list, older than
// Age.
type Window struct {
	Label string
	Kinds func() []int
	Age   time.Duration
}

func bucket(b kind.Bucket, age time.Duration) Window {
	return Window{
		Label: b.String(),
		Kinds: func() []int { return kind.KindsIn(b) },
		Age:   age,
	}
}

// Tiers are the retention windows of each tier.
var Tiers = map[Tier][]Window{
	Normal: {
		bucket(kind.Engagement, 14*Day),
		bucket(kind.Content, 60*Day),
		bucket(kind.Private, 180*Day),
	},
	Moderate: {
		bucket(kind.Engagement, 7*Day),
		bucket(kind.Content, 30*Day),
		bucket(kind.Private, 90*Day),
	},
	Aggressive: {
		bucket(kind.Engagement, 3*Day),
		bucket(kind.Content, 14*Day),
		bucket(kind.Private, 30*Day),
		{Label: "identity", Kinds: kind.Identity, Age: 30 * Day},
		bucket(kind.Metadata, 365*Day),
	},
}

// Sweep is one deletion window applied during a pass.
type Sweep struct {
	Tier    Tier
	Label   string
	Kinds   []int
	Before  nostr.Timestamp
	Deleted int
}

// Report describes one governor pass.
type Report struct {
	// SizeMB is the size measured before anything was deleted, it decides
	// the tiers.
	SizeMB    float64
	Tiers     []Tier
	Sweeps    []Sweep
	Compacted bool
}

// Deleted is the total of every sweep.
func (r Report) Deleted() (n int) {
	for _, s := range r.Sweeps {
		n += s.Deleted
	}
	return
}

type T struct {
	Store     store.I
	MaxSizeMB int
	// Interval is the time between passes of Run.
	Interval time.Duration
	// Delay is the wait before the first pass of Run.
	Delay time.Duration
	// Now is the clock retention ages are measured from.
	Now func() time.Time
	// SizeMB measures the store, by default the allocated size of its
	// directory.
	SizeMB func() float64
}

func New(st store.I, maxSizeMB int) (g *T) {
	g = &T{
		Store:     st,
		MaxSizeMB: maxSizeMB,
		Interval:  DefaultInterval,
		Now:       time.Now,
	}
	g.SizeMB = func() float64 { return store.DirSizeMB(g.Store.Path()) }
	return
}

// DbSizeMB is the current size of the store in mebibytes, zero when it can't
// be measured.
func (g *T) DbSizeMB() float64 { return g.SizeMB() }

// IsNearLimit is true above 85% of the cap.
func (g *T) IsNearLimit() bool { return nearLimit(g.DbSizeMB(), g.MaxSizeMB) }

// IsOverLimit is true above the cap.
func (g *T) IsOverLimit() bool { return overLimit(g.DbSizeMB(), g.MaxSizeMB) }

func nearLimit(size float64, capMB int) bool {
	return size*100 > float64(capMB)*NearLimitPercent
}

func overLimit(size float64, capMB int) bool { return size > float64(capMB) }

// tiersFor picks the tiers for a measured size. Normal always runs, then
// aggressive over the cap or moderate near it.
func tiersFor(size float64, capMB int) (tiers []Tier) {
	tiers = []Tier{Normal}
	switch {
	case overLimit(size, capMB):
		tiers = append(tiers, Aggressive)
	case nearLimit(size, capMB):
		tiers = append(tiers, Moderate)
	}
	return
}

// Enforce runs one governor pass. A store that is not open gives an empty
// report, any other store failure ends the pass with an error wrapping
// ErrPruneFailure.
func (g *T) Enforce(c context.Context) (r Report, err error) {
	r.SizeMB = g.DbSizeMB()
	r.Tiers = tiersFor(r.SizeMB, g.MaxSizeMB)
	now := g.Now()
	log.D.F("governor pass at %.2f/%d MiB, tiers %v", r.SizeMB, g.MaxSizeMB,
		r.Tiers)
	for _, tier := range r.Tiers {
		for _, w := range Tiers[tier] {
			kinds := w.Kinds()
			if len(kinds) == 0 {
				continue
			}
			before := nostr.Timestamp(now.Add(-w.Age).Unix())
			var n int
			n, err = g.Store.Delete(c, filter.KindsBefore(kinds, before))
			if errors.Is(err, store.ErrNotOpen) {
				log.D.Ln("store not open, nothing to prune")
				return Report{}, nil
			}
			if err != nil {
				return r, fmt.Errorf("%w: %s %s sweep: %w", ErrPruneFailure,
					tier, w.Label, err)
			}
			r.Sweeps = append(r.Sweeps, Sweep{
				Tier:    tier,
				Label:   w.Label,
				Kinds:   kinds,
				Before:  before,
				Deleted: n,
			})
			if n > 0 {
				log.I.F("%s tier pruned %d %s events before %s", tier, n,
					w.Label, before.Time().Format(time.DateOnly))
			}
		}
	}
	if r.Deleted() > 0 {
		if cp, ok := g.Store.(store.Compactor); ok {
			if !chk.W(cp.Compact()) {
				r.Compacted = true
			}
		}
	}
	return
}

// Run waits Delay and then runs a pass every Interval until c is done.
// Failures are logged.
func (g *T) Run(c context.Context) {
	interval := g.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	for {
		select {
		case <-c.Done():
			log.D.Ln("governor stopped")
			return
		case <-timer.C:
		}
		r, err := g.Enforce(c)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.E.Ln(err)
		} else if err == nil {
			log.D.F("governor pass deleted %d events", r.Deleted())
		}
		timer.Reset(interval)
	}
}
