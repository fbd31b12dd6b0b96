// Package filter is the query/delete predicate over stored events.
//
// T embeds the protocol filter from go-nostr so it decodes from and encodes to
// the canonical subscription filter JSON, and adds TagsAll, carried on the
// wire as "&x" keys next to the "#x" keys of Tags.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"
)

// T is a conjunctive predicate over events. Every field is optional, lists
// are OR'd internally.
//
//   - Since is inclusive, Until is exclusive.
//   - Tags[name] matches when some tag named name has its value in the list.
//   - TagsAll[name] matches when every listed value is present under name.
//   - Search is a case-insensitive substring match over content.
//   - Limit only caps query results.
//
// An empty list is treated the same as an absent one.
type T struct {
	nostr.Filter
	TagsAll nostr.TagMap
}

// S is a list of filters whose query results are unioned.
type S []*T

// MatchAll returns the filter with no constraints.
func MatchAll() *T { return &T{} }

// KindsBefore matches the given kinds created strictly before until.
func KindsBefore(kinds []int, until nostr.Timestamp) *T {
	return &T{Filter: nostr.Filter{Kinds: kinds, Until: &until}}
}

// IsMatchAll reports whether f has no constraint at all. Limit is not a
// constraint.
func (f *T) IsMatchAll() bool {
	if f == nil {
		return true
	}
	return len(f.IDs) == 0 &&
		len(f.Kinds) == 0 &&
		len(f.Authors) == 0 &&
		!hasValues(f.Tags) &&
		!hasValues(f.TagsAll) &&
		f.Since == nil &&
		f.Until == nil &&
		f.Search == ""
}

func hasValues(tm nostr.TagMap) bool {
	for _, v := range tm {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

// Matches reports whether ev satisfies every constraint of f.
func (f *T) Matches(ev *nostr.Event) bool {
	if ev == nil {
		return false
	}
	if f == nil {
		return true
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, ev.ID) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if !f.MatchesTime(ev.CreatedAt) {
		return false
	}
	for name, values := range f.Tags {
		if len(values) > 0 && !ev.Tags.ContainsAny(name, values) {
			return false
		}
	}
	for name, values := range f.TagsAll {
		for _, v := range values {
			if !ev.Tags.ContainsAny(name, []string{v}) {
				return false
			}
		}
	}
	if f.Search != "" && !ContainsFold(ev.Content, f.Search) {
		return false
	}
	return true
}

// MatchesTime checks the since/until window alone.
func (f *T) MatchesTime(ts nostr.Timestamp) bool {
	if f.Since != nil && ts < *f.Since {
		return false
	}
	if f.Until != nil && ts >= *f.Until {
		return false
	}
	return true
}

// ContainsFold is a case-insensitive strings.Contains.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MarshalJSON encodes the protocol filter and appends the TagsAll entries as
// "&x" keys in sorted order.
func (f T) MarshalJSON() (b []byte, err error) {
	if b, err = f.Filter.MarshalJSON(); err != nil {
		return
	}
	names := make([]string, 0, len(f.TagsAll))
	for name, values := range f.TagsAll {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	slices.Sort(names)
	// reopen the object
	b = b[:len(b)-1]
	for i, name := range names {
		if i > 0 || len(b) > 1 {
			b = append(b, ',')
		}
		var k, v []byte
		if k, err = marshalRaw("&" + name); err != nil {
			return
		}
		if v, err = marshalRaw(f.TagsAll[name]); err != nil {
			return
		}
		b = append(b, k...)
		b = append(b, ':')
		b = append(b, v...)
	}
	b = append(b, '}')
	return
}

// marshalRaw encodes v without the HTML escaping of json.Marshal, which would
// turn the & of a key into \u0026.
func marshalRaw(v any) (b []byte, err error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err = enc.Encode(v); err != nil {
		return
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// UnmarshalJSON decodes the protocol fields with the go-nostr decoder and picks
// the "&x" keys out separately, the protocol decoder skips them.
func (f *T) UnmarshalJSON(b []byte) (err error) {
	if f == nil {
		return fmt.Errorf("cannot unmarshal into nil filter")
	}
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("invalid filter JSON")
	}
	if err = f.Filter.UnmarshalJSON(b); err != nil {
		return
	}
	f.TagsAll = nil
	gjson.ParseBytes(b).ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if len(k) < 2 || k[0] != '&' {
			return true
		}
		if !value.IsArray() {
			err = fmt.Errorf("filter key %q must be an array", k)
			return false
		}
		var values []string
		for _, v := range value.Array() {
			values = append(values, v.String())
		}
		if f.TagsAll == nil {
			f.TagsAll = nostr.TagMap{}
		}
		f.TagsAll[k[1:]] = values
		return true
	})
	return
}

func (f *T) String() string {
	b, _ := f.MarshalJSON()
	return string(b)
}
