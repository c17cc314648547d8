package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdapgw/gateway/internal/asnmap"
	"github.com/rdapgw/gateway/internal/iptable"
	"github.com/rdapgw/gateway/internal/store"
)

func newTestDirectory(t *testing.T) (*Directory, *store.Store) {
	t.Helper()
	s := store.New(nil)
	return New(s), s
}

func TestDomainAuthorityNotFound(t *testing.T) {
	dir, _ := newTestDirectory(t)
	_, err := dir.DomainAuthority("example.com")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestDomainAuthorityMalformed(t *testing.T) {
	dir, _ := newTestDirectory(t)
	_, err := dir.DomainAuthority("")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestIPAuthorityMalformed(t *testing.T) {
	dir, _ := newTestDirectory(t)
	_, err := dir.IPAuthority("not-an-ip")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestAutnumAuthorityFound(t *testing.T) {
	s := store.New(nil)
	b := s.Stage()
	a := b.Authorities().CreateAnonymous([]string{"https://rdap.example/"})
	require.NoError(t, b.Authorities().AddServers(a, []string{"https://rdap.example/"}))
	b.ASNs().Insert(asnmap.Range{Low: 100, High: 200}, a.Handle())
	s.Commit(b)

	dir := New(s)
	got, err := dir.AutnumAuthority(150)
	require.NoError(t, err)
	assert.Equal(t, a.Handle(), got.Handle())

	_, err = dir.AutnumAuthority(300)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestIPAuthorityFound(t *testing.T) {
	s := store.New(nil)
	b := s.Stage()
	a := b.Authorities().CreateAnonymous([]string{"https://rdap.example/"})
	require.NoError(t, b.Authorities().AddServers(a, []string{"https://rdap.example/"}))
	p, err := iptable.ParsePrefix("203.0.113.0/24")
	require.NoError(t, err)
	b.IPs().Insert(p, a.Handle())
	s.Commit(b)

	dir := New(s)
	got, err := dir.IPAuthority("203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, a.Handle(), got.Handle())
}

func TestEntityAuthorityByTag(t *testing.T) {
	s := store.New(nil)
	require.NoError(t, s.SetStaticAuthorities([]store.StaticAuthority{
		{Name: "VRSN", Servers: []string{"https://rdap.verisign.com/rdap/"}},
	}))

	dir := New(s)

	got, err := dir.EntityAuthority("12345-VRSN")
	require.NoError(t, err)
	assert.Equal(t, "VRSN", got.Name)

	got, err = dir.EntityAuthority("12345~VRSN")
	require.NoError(t, err)
	assert.Equal(t, "VRSN", got.Name)

	// An unregistered tag misses. The registered one survives a scraper
	// refresh cycle, since static authorities are re-seeded into every
	// generation.
	_, err = dir.EntityAuthority("12345-ARIN")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	b := s.Stage()
	s.Commit(b)
	got, err = dir.EntityAuthority("12345-VRSN")
	require.NoError(t, err)
	assert.Equal(t, "VRSN", got.Name)

	_, err = dir.EntityAuthority("notagseparator")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestParseASN(t *testing.T) {
	v, err := ParseASN("AS1768")
	require.NoError(t, err)
	assert.EqualValues(t, 1768, v)

	_, err = ParseASN("not-a-number")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}
