// Package directory implements the read-side query API used by request
// filters: it parses already-typed inputs, dispatches to the right routing
// map in the current ResourceStore generation, and translates "no match"
// into the spec's error taxonomy.
package directory

import (
	"net"
	"strconv"
	"strings"

	"github.com/rdapgw/gateway/internal/authority"
	"github.com/rdapgw/gateway/internal/iptable"
	"github.com/rdapgw/gateway/internal/store"
)

// Directory is a façade over a ResourceStore, exposing one typed operation
// per RDAP request kind (spec.md §4.6).
type Directory struct {
	store *store.Store
}

// New creates a Directory backed by s.
func New(s *store.Store) *Directory {
	return &Directory{store: s}
}

// AutnumAuthority resolves the authority responsible for asn.
func (d *Directory) AutnumAuthority(asn uint32) (*authority.Authority, error) {
	gen := d.store.Snapshot()

	h, ok := gen.ASNs.Lookup(asn)
	if !ok {
		return nil, ErrResourceNotFound
	}
	a, ok := gen.Authorities.Authority(h)
	if !ok {
		return nil, ErrResourceNotFound
	}
	return a, nil
}

// IPAuthority resolves the authority responsible for the IP address or
// prefix in query (a bare address or a CIDR string).
func (d *Directory) IPAuthority(query string) (*authority.Authority, error) {
	prefix, err := iptable.ParsePrefix(query)
	if err != nil {
		return nil, ErrMalformedRequest
	}

	gen := d.store.Snapshot()

	h, ok := gen.IPs.LookupPrefix(prefix)
	if !ok {
		return nil, ErrResourceNotFound
	}
	a, ok := gen.Authorities.Authority(h)
	if !ok {
		return nil, ErrResourceNotFound
	}
	return a, nil
}

// DomainAuthority resolves the authority responsible for name via
// longest-suffix match.
func (d *Directory) DomainAuthority(name string) (*authority.Authority, error) {
	if !isSyntacticallyValidDomain(name) {
		return nil, ErrMalformedRequest
	}

	gen := d.store.Snapshot()

	h, ok := gen.Domains.Lookup(name)
	if !ok {
		return nil, ErrResourceNotFound
	}
	a, ok := gen.Authorities.Authority(h)
	if !ok {
		return nil, ErrResourceNotFound
	}
	return a, nil
}

// NameserverAuthority resolves the authority responsible for a nameserver's
// fully-qualified domain name, which resolves via domain suffix just like
// DomainAuthority.
func (d *Directory) NameserverAuthority(fqdn string) (*authority.Authority, error) {
	return d.DomainAuthority(fqdn)
}

// EntityAuthority resolves the authority responsible for an entity handle.
// Per RFC 7484 §5.2 and the object-tag convention, a handle carries a
// suffix ("12345-VRSN" or "12345~VRSN") indicating the issuing authority;
// this composes AuthorityStore.FindByName with the handle's tag. The names
// FindByName can hit here come from operator-configured static authorities
// (store.StaticAuthority), not the bootstrap scraper — IANA's bootstrap
// documents never register a named object-tag authority, only anonymous
// ones.
func (d *Directory) EntityAuthority(handle string) (*authority.Authority, error) {
	tag := entityTag(handle)
	if tag == "" {
		return nil, ErrMalformedRequest
	}

	gen := d.store.Snapshot()

	a, ok := gen.Authorities.FindByName(strings.ToUpper(tag))
	if !ok {
		return nil, ErrResourceNotFound
	}
	return a, nil
}

func entityTag(handle string) string {
	for _, sep := range []byte{'~', '-'} {
		if idx := strings.LastIndexByte(handle, sep); idx != -1 && idx < len(handle)-1 {
			return handle[idx+1:]
		}
	}
	return ""
}

func isSyntacticallyValidDomain(name string) bool {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" || len(name) > 253 {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
	}
	return true
}

// ParseASN parses a caller-supplied ASN string ("AS1234" or "1234") into a
// uint32, per the malformed-request boundary the Directory enforces before
// ever touching the routing core.
func ParseASN(input string) (uint32, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, "as")
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrMalformedRequest
	}
	return uint32(v), nil
}

// ParseIP validates that query is a syntactically well-formed IP address or
// CIDR prefix before it reaches IPAuthority.
func ParseIP(query string) (net.IP, bool) {
	if strings.Contains(query, "/") {
		ip, _, err := net.ParseCIDR(query)
		return ip, err == nil
	}
	ip := net.ParseIP(query)
	return ip, ip != nil
}
