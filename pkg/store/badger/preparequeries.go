package badger

import (
	"math"

	"github.com/Hubmakerlabs/localstr/pkg/filter"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/createdat"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/id"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/index"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/kinder"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/pubkey"
	"github.com/Hubmakerlabs/localstr/pkg/store/badger/keys/tagval"
	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/exp/slices"
)

type query struct {
	index        int
	searchPrefix []byte
	start        []byte
	// skipTS is set for the id index which has no timestamp in the key.
	skipTS bool
}

// plan is the set of index scans answering one filter.
type plan struct {
	queries []query
	since   nostr.Timestamp
	// exact is true when the index keys alone decide a match, the event
	// records never need to be read to check the filter.
	exact bool
}

// PrepareQueries analyses a filter and generates a set of query specs that
// produce key prefixes to search for in the badger key indexes.
//
// One index is chosen, in order of preference: ids, authors (with kinds),
// tags, kinds and finally created_at alone.
func PrepareQueries(f *filter.T) (p *plan) {
	p = &plan{since: math.MinInt64}
	timeOnly := func(rest ...bool) bool {
		for _, r := range rest {
			if r {
				return false
			}
		}
		return true
	}
	hasTags, hasTagsAll := tagNames(f.Tags), tagNames(f.TagsAll)
	var prefixes [][]byte
	switch {
	// first if there is IDs, just search for them, this overrides all other
	// filters. An id that can't be stored can't match, so it gets no lookup.
	case len(f.IDs) > 0:
		for _, idHex := range dedup(f.IDs) {
			ID, err := id.Parse(idHex)
			if err != nil {
				continue
			}
			prefixes = append(prefixes, index.Id.Key(ID))
		}
		p.exact = f.Since == nil && f.Until == nil &&
			timeOnly(len(f.Kinds) > 0, len(f.Authors) > 0,
				len(hasTags) > 0, len(hasTagsAll) > 0, f.Search != "")
	// second we make a set of queries based on author pubkeys, optionally
	// with kinds
	case len(f.Authors) > 0:
		for _, pk := range dedup(f.Authors) {
			if len(f.Kinds) == 0 {
				prefixes = append(prefixes, index.Pubkey.Key(pubkey.New(pk)))
				continue
			}
			for _, k := range dedup(f.Kinds) {
				prefixes = append(prefixes,
					index.PubkeyKind.Key(pubkey.New(pk), kinder.New(k)))
			}
		}
	case len(hasTags) > 0 || len(hasTagsAll) > 0:
		if len(hasTags) > 0 {
			// any of the values of one tag name
			name := hasTags[0]
			for _, v := range dedup(f.Tags[name]) {
				prefixes = append(prefixes,
					index.Tag.Key(tagval.New(name[0], v)))
			}
		} else {
			// every event has to carry each TagsAll value so one will do
			name := hasTagsAll[0]
			prefixes = append(prefixes,
				index.Tag.Key(tagval.New(name[0], f.TagsAll[name][0])))
		}
	case len(f.Kinds) > 0:
		for _, k := range dedup(f.Kinds) {
			if k < 0 || k > math.MaxUint16 {
				continue
			}
			prefixes = append(prefixes, index.Kind.Key(kinder.New(k)))
		}
		p.exact = timeOnly(len(hasTags) > 0, len(hasTagsAll) > 0,
			f.Search != "", hasOtherTags(f))
	default:
		prefixes = append(prefixes, index.CreatedAt.Key())
		p.exact = f.Search == "" && !hasOtherTags(f)
	}
	// keys at the until timestamp sort after the seek key as they have a
	// serial appended, so the bound is exclusive.
	var until []byte
	if f.Until != nil {
		until = createdat.Encode(*f.Until)
	} else {
		until = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}
	for i, prf := range prefixes {
		q := query{index: i, searchPrefix: prf}
		if prf[0] == index.Id.B() {
			q.skipTS = true
			q.start = append(slices.Clone(prf), 0xff, 0xff, 0xff, 0xff,
				0xff, 0xff, 0xff, 0xff)
		} else {
			q.start = append(slices.Clone(prf), until...)
		}
		p.queries = append(p.queries, q)
	}
	// this is where we'll end the iteration
	if f.Since != nil {
		p.since = *f.Since
	}
	return
}

// tagNames returns the sorted single letter names with values. Other names
// can't be served by the tag index.
func tagNames(tm nostr.TagMap) (names []string) {
	for name, values := range tm {
		if len(name) == 1 && len(values) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return
}

// hasOtherTags reports tag constraints on names the index does not cover.
func hasOtherTags(f *filter.T) bool {
	for _, tm := range []nostr.TagMap{f.Tags, f.TagsAll} {
		for name, values := range tm {
			if len(name) != 1 && len(values) > 0 {
				return true
			}
		}
	}
	return false
}

func dedup[V int | string](l []V) (out []V) {
	out = slices.Clone(l)
	slices.Sort(out)
	return slices.Compact(out)
}
