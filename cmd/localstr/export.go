package main

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/nbd-wtf/go-nostr"
)

// Export writes the stored events, newest first, one JSON object per line to
// stdout or a file.
func Export(c context.Context, st store.I, cmd *ExportCmd) (err error) {
	w := io.Writer(os.Stdout)
	if cmd.ToFile != "" {
		var fh *os.File
		if fh, err = os.OpenFile(cmd.ToFile,
			os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600); chk.E(err) {
			return
		}
		defer func() { chk.E(fh.Close()) }()
		w = fh
	}
	f := &filter.T{Filter: nostr.Filter{Kinds: cmd.Kinds}}
	var n int
	if n, err = ExportWriter(c, st, f, w); err != nil {
		return
	}
	log.I.F("exported %d events", n)
	return
}

// ExportWriter writes the matches of f to w as line structured JSON.
func ExportWriter(c context.Context, st store.I, f *filter.T, w io.Writer) (
	n int, err error) {

	var evs []*nostr.Event
	if evs, err = st.Query(c, f); chk.E(err) {
		return
	}
	bw := bufio.NewWriter(w)
	for _, ev := range evs {
		var b []byte
		if b, err = ev.MarshalJSON(); chk.E(err) {
			return
		}
		if _, err = bw.Write(append(b, '\n')); chk.E(err) {
			return
		}
		n++
	}
	err = bw.Flush()
	return
}
