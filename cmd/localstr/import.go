package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"os"

	"github.com/Hubmakerlabs/localstr/pkg/kind"
	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/minio/sha256-simd"
	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
)

// MaxLineSize is the longest line read from an import file.
const MaxLineSize = 1 << 22

// ImportResult counts what happened to each line of an import.
type ImportResult struct {
	Lines, Skipped, Invalid, Written int
}

// Import reads line structured JSON events from stdin or the given files and
// writes the ones the kind policy persists.
func Import(c context.Context, st store.I, cmd *ImportCmd) (err error) {
	var res ImportResult
	if len(cmd.FromFile) == 0 {
		if res, err = ImportReader(c, st, os.Stdin, cmd); err != nil {
			return
		}
	}
	for _, name := range cmd.FromFile {
		var fh *os.File
		if fh, err = os.Open(name); chk.E(err) {
			return
		}
		log.D.Ln("importing", name)
		var r ImportResult
		r, err = ImportReader(c, st, fh, cmd)
		chk.D(fh.Close())
		res.Lines += r.Lines
		res.Skipped += r.Skipped
		res.Invalid += r.Invalid
		res.Written += r.Written
		if err != nil {
			return
		}
	}
	log.I.F("read %d lines, wrote %d events, skipped %d, %d invalid",
		res.Lines, res.Written, res.Skipped, res.Invalid)
	return
}

// ImportReader imports from one reader.
func ImportReader(c context.Context, st store.I, rd io.Reader,
	cmd *ImportCmd) (res ImportResult, err error) {

	batchSize := cmd.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	batch := make([]*nostr.Event, 0, batchSize)
	flush := func() {
		res.Written += st.InsertBatch(c, batch)
		batch = batch[:0]
	}
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		if err = c.Err(); err != nil {
			return
		}
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		res.Lines++
		// skip kinds we don't keep without decoding the rest
		k := gjson.GetBytes(b, "kind")
		if !k.Exists() || !kind.ShouldPersist(int(k.Int())) {
			res.Skipped++
			continue
		}
		ev := &nostr.Event{}
		if err = ev.UnmarshalJSON(b); chk.D(err) {
			res.Invalid++
			err = nil
			continue
		}
		if !ValidID(ev) {
			log.D.F("id mismatch on %s", ev.ID)
			res.Invalid++
			continue
		}
		if cmd.CheckSig {
			if ok, e := ev.CheckSignature(); chk.D(e) || !ok {
				log.D.F("invalid signature on %s", ev.ID)
				res.Invalid++
				continue
			}
		}
		if batch = append(batch, ev); len(batch) >= batchSize {
			flush()
		}
	}
	if err = scanner.Err(); chk.E(err) {
		return
	}
	flush()
	return
}

// ValidID checks the id is the hash of the canonical serialization.
func ValidID(ev *nostr.Event) bool {
	hash := sha256.Sum256(ev.Serialize())
	return hex.EncodeToString(hash[:]) == ev.ID
}
