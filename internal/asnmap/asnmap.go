// Package asnmap implements the ASN range map of the resource routing
// core: an ordered, non-overlapping set of AsnRange -> Authority mappings
// with O(log n) lookup by binary search, generalising the sorted-slice
// approach in bootstrap.ASNRegistry (see bootstrap/asn_registry.go) with
// overlap-aware insertion, since that registry never needed to split
// ranges — every IANA ASN entry is already disjoint.
package asnmap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/authority"
)

// Range is a closed interval [Low, High] of AS numbers.
type Range struct {
	Low, High uint32
}

type entry struct {
	Range
	handle authority.Handle
}

// Map stores a set of non-overlapping Range -> Authority mappings, ordered
// by Low for binary search.
type Map struct {
	entries []entry
	log     *zap.Logger
}

// New creates an empty Map.
func New(log *zap.Logger) *Map {
	if log == nil {
		log = zap.NewNop()
	}
	return &Map{log: log}
}

// Insert adds rng -> a. Any portion of an existing range that overlaps rng
// is given to a: existing ranges are split or truncated as needed so the
// post-insert invariant (no two stored ranges overlap) holds, and the
// overwrite is logged as a warning per the same "IANA is authoritative for
// the refresh in progress" policy as IPRoutingTable.Insert.
func (m *Map) Insert(rng Range, a authority.Handle) {
	if rng.Low > rng.High {
		rng.Low, rng.High = rng.High, rng.Low
	}

	var out []entry
	var trailing []entry
	overwrote := false

	for _, e := range m.entries {
		switch {
		case e.High < rng.Low || e.Low > rng.High:
			out = append(out, e)
		default:
			overwrote = true
			if e.Low < rng.Low {
				out = append(out, entry{Range{e.Low, rng.Low - 1}, e.handle})
			}
			if e.High > rng.High {
				trailing = append(trailing, entry{Range{rng.High + 1, e.High}, e.handle})
			}
		}
	}
	out = append(out, entry{rng, a})
	out = append(out, trailing...)

	sort.Slice(out, func(i, j int) bool { return out[i].Low < out[j].Low })
	out = coalesce(out)

	if overwrote {
		m.log.Warn("asnmap: new range overlaps existing entries, splitting",
			zap.Uint32("low", rng.Low), zap.Uint32("high", rng.High),
			zap.Uint64("new_handle", uint64(a)),
		)
	}

	m.entries = out
}

// coalesce merges adjacent entries that carry the same authority handle.
func coalesce(in []entry) []entry {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, e := range in[1:] {
		last := &out[len(out)-1]
		if last.handle == e.handle && last.High < ^uint32(0) && last.High+1 == e.Low {
			last.High = e.High
			continue
		}
		out = append(out, e)
	}
	return out
}

// Lookup returns the authority covering the single ASN asn, or false if no
// entry covers it.
func (m *Map) Lookup(asn uint32) (authority.Handle, bool) {
	return m.LookupRange(Range{asn, asn})
}

// LookupRange returns the authority covering the full interval rng, or
// false if rng is not entirely covered by one stored entry.
func (m *Map) LookupRange(rng Range) (authority.Handle, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].High >= rng.Low
	})

	if i == len(m.entries) {
		return 0, false
	}

	e := m.entries[i]
	if e.Low <= rng.Low && rng.High <= e.High {
		return e.handle, true
	}
	return 0, false
}
