package asnmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASNCoverage(t *testing.T) {
	m := New(nil)
	m.Insert(Range{1000, 2000}, 1)

	for asn := uint32(1000); asn <= 2000; asn++ {
		h, ok := m.Lookup(asn)
		require.True(t, ok, "asn %d should be covered", asn)
		assert.EqualValues(t, 1, h)
	}

	_, ok := m.Lookup(999)
	assert.False(t, ok)
	_, ok = m.Lookup(2001)
	assert.False(t, ok)
}

func TestRangeSplitOnOverlap(t *testing.T) {
	m := New(nil)
	m.Insert(Range{1000, 2000}, 1)
	m.Insert(Range{1500, 1800}, 2)

	h, ok := m.Lookup(1400)
	require.True(t, ok)
	assert.EqualValues(t, 1, h)

	h, ok = m.Lookup(1600)
	require.True(t, ok)
	assert.EqualValues(t, 2, h)

	h, ok = m.Lookup(1900)
	require.True(t, ok)
	assert.EqualValues(t, 1, h)
}

func TestLookupRangeRequiresFullCoverage(t *testing.T) {
	m := New(nil)
	m.Insert(Range{1000, 1500}, 1)
	m.Insert(Range{1501, 2000}, 2)

	_, ok := m.LookupRange(Range{1400, 1600})
	assert.False(t, ok, "a query spanning two authorities must not resolve")

	h, ok := m.LookupRange(Range{1000, 1500})
	require.True(t, ok)
	assert.EqualValues(t, 1, h)
}

func TestAdjacentRangesCoalesce(t *testing.T) {
	m := New(nil)
	m.Insert(Range{100, 200}, 1)
	m.Insert(Range{201, 300}, 1)

	h, ok := m.LookupRange(Range{100, 300})
	require.True(t, ok, "adjacent ranges sharing an authority should coalesce into one coverage span")
	assert.EqualValues(t, 1, h)
}

func TestOverwriteSameRangeDifferentAuthority(t *testing.T) {
	m := New(nil)
	m.Insert(Range{100, 200}, 1)
	m.Insert(Range{100, 200}, 2)

	h, ok := m.Lookup(150)
	require.True(t, ok)
	assert.EqualValues(t, 2, h)
}
