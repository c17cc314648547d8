// Package iptable implements the longest-prefix IP routing table described
// in the gateway's resource routing core: two independent bitwise tries,
// one for IPv4 and one for IPv6, each node carrying at most one authority
// handle.
//
// This generalises the binary-search-over-sorted-CIDRs approach of
// bootstrap.NetRegistry (see bootstrap/net_registry.go) into a trie so that
// insertion and lookup are both O(prefixLength), per spec.
package iptable

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/authority"
)

// Family distinguishes the two independent tries.
type Family int

const (
	V4 Family = iota
	V6
)

// Prefix is a canonical (family, networkAddress, prefixLength) tuple.
type Prefix struct {
	Family Family
	Net    *net.IPNet
	Length int
}

// ParsePrefix parses a CIDR string (or a bare address, treated as a host
// prefix) into a canonical Prefix.
func ParsePrefix(cidr string) (Prefix, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		// Accept a bare address as an implicit host prefix.
		ip := net.ParseIP(cidr)
		if ip == nil {
			return Prefix{}, fmt.Errorf("iptable: malformed prefix %q: %w", cidr, err)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		_, ipNet, err = net.ParseCIDR(fmt.Sprintf("%s/%d", cidr, bits))
		if err != nil {
			return Prefix{}, fmt.Errorf("iptable: malformed address %q: %w", cidr, err)
		}
	}

	fam := V4
	if ipNet.IP.To4() == nil {
		fam = V6
	}

	ones, _ := ipNet.Mask.Size()
	return Prefix{Family: fam, Net: ipNet, Length: ones}, nil
}

type node struct {
	children [2]*node
	handle   authority.Handle
	has      bool
}

// Table is a longest-prefix lookup structure over IPv4 and IPv6 prefixes.
type Table struct {
	v4  *node
	v6  *node
	log *zap.Logger
}

// New creates an empty Table. log may be nil, in which case a no-op logger
// is used.
func New(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{v4: &node{}, v6: &node{}, log: log}
}

func (t *Table) root(f Family) *node {
	if f == V4 {
		return t.v4
	}
	return t.v6
}

// Insert places authority at the node corresponding to prefix. A prior
// occupant, if any, is overwritten and a warning logged — per spec, IANA
// data is authoritative for the refresh cycle in progress.
func (t *Table) Insert(p Prefix, a authority.Handle) {
	n := t.root(p.Family)
	bits := bitsOf(p.Net.IP, p.Family)

	for i := 0; i < p.Length; i++ {
		bit := bitAt(bits, i)
		if n.children[bit] == nil {
			n.children[bit] = &node{}
		}
		n = n.children[bit]
	}

	if n.has && n.handle != a {
		t.log.Warn("iptable: overwriting existing authority at prefix",
			zap.String("prefix", p.Net.String()),
			zap.Uint64("previous_handle", uint64(n.handle)),
			zap.Uint64("new_handle", uint64(a)),
		)
	}
	n.handle = a
	n.has = true
}

// Lookup descends the trie following address's bits from most to least
// significant and returns the authority at the deepest visited node that
// carries one, or false if none does.
func (t *Table) Lookup(addr net.IP) (authority.Handle, bool) {
	fam := V4
	if addr.To4() == nil {
		fam = V6
	}

	maxBits := 32
	if fam == V6 {
		maxBits = 128
	}

	return t.lookupBits(fam, bitsOf(addr, fam), maxBits)
}

// LookupPrefix is like Lookup but descent stops at prefix.Length, matching
// the two-argument lookup described for IPRoutingTable.
func (t *Table) LookupPrefix(p Prefix) (authority.Handle, bool) {
	return t.lookupBits(p.Family, bitsOf(p.Net.IP, p.Family), p.Length)
}

func (t *Table) lookupBits(fam Family, bits []byte, depth int) (authority.Handle, bool) {
	n := t.root(fam)

	var bestHandle authority.Handle
	var bestFound bool

	if n.has {
		bestHandle, bestFound = n.handle, true
	}

	for i := 0; i < depth && n != nil; i++ {
		bit := bitAt(bits, i)
		n = n.children[bit]
		if n == nil {
			break
		}
		if n.has {
			bestHandle, bestFound = n.handle, true
		}
	}

	return bestHandle, bestFound
}

func bitsOf(ip net.IP, f Family) []byte {
	if f == V4 {
		v4 := ip.To4()
		if v4 != nil {
			return v4
		}
		return ip.To16()[12:]
	}
	return ip.To16()
}

func bitAt(b []byte, i int) int {
	byteIdx := i / 8
	bitIdx := 7 - uint(i%8)
	if byteIdx >= len(b) {
		return 0
	}
	return int((b[byteIdx] >> bitIdx) & 1)
}
