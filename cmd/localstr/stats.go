package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/governor"
	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/gookit/color"
	"github.com/nbd-wtf/go-nostr"
)

// Stats prints the size of the store against its cap, the number of events in
// each bucket with a line per kind present, and the events of kinds the policy
// no longer admits.
func Stats(c context.Context, st store.I, maxSizeMB int, w io.Writer) (
	err error) {

	g := governor.New(st, maxSizeMB)
	size := g.DbSizeMB()
	state := color.Green.Sprint("ok")
	switch {
	case g.IsOverLimit():
		state = color.Red.Sprint("over limit")
	case g.IsNearLimit():
		state = color.Yellow.Sprint("near limit")
	}
	fmt.Fprintf(w, "store     %s\n", st.Path())
	fmt.Fprintf(w, "size      %.2f / %d MiB (%s)\n", size, maxSizeMB, state)
	var total int64
	if total, err = st.Count(c, filter.MatchAll()); err != nil {
		return
	}
	fmt.Fprintf(w, "events    %d\n", total)
	for _, b := range kind.Buckets {
		var n int64
		f := &filter.T{Filter: nostr.Filter{Kinds: kind.KindsIn(b)}}
		if n, err = st.Count(c, f); err != nil {
			return
		}
		fmt.Fprintf(w, "  %-10s %d\n", b, n)
		if n == 0 {
			continue
		}
		for _, k := range kind.KindsIn(b) {
			f = &filter.T{Filter: nostr.Filter{Kinds: []int{k}}}
			if n, err = st.Count(c, f); err != nil {
				return
			}
			if n > 0 {
				fmt.Fprintf(w, "    %-22s %d\n", kind.T(k).Name(), n)
			}
		}
	}
	var admitted int64
	if admitted, err = st.Count(c, &filter.T{Filter: nostr.Filter{
		Kinds: kind.Persisted()}}); err != nil {
		return
	}
	fmt.Fprintf(w, "  %-10s %d\n", "unlisted", total-admitted)
	return
}

// Prune runs one governor pass and prints what it deleted.
func Prune(c context.Context, st store.I, maxSizeMB int, w io.Writer) (
	err error) {

	var r governor.Report
	if r, err = governor.New(st, maxSizeMB).Enforce(c); err != nil {
		return
	}
	fmt.Fprintf(w, "size %.2f / %d MiB, tiers %v\n", r.SizeMB, maxSizeMB,
		r.Tiers)
	for _, s := range r.Sweeps {
		fmt.Fprintf(w, "  %-10s %-10s before %s deleted %d\n", s.Tier, s.Label,
			s.Before.Time().UTC().Format("2006-01-02"), s.Deleted)
	}
	fmt.Fprintf(w, "deleted %d events\n", r.Deleted())
	return
}
