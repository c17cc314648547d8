package scraper

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdapgw/gateway/internal/store"
)

const asnJSON = `{"version":"1.0","publication":"2024-01-01T00:00:00Z","services":[
  [["1877","1881"],["https://rdap.example.asn/"]]
]}`

const dnsJSON = `{"version":"1.0","publication":"2024-01-01T00:00:00Z","services":[
  [["uk"],["https://rdap.example.dns/"]]
]}`

const ipv4JSON = `{"version":"1.0","publication":"2024-01-01T00:00:00Z","services":[
  [["192.0.2.0/24"],["https://rdap.example.ipv4/"]]
]}`

const ipv6JSON = `{"version":"1.0","publication":"2024-01-01T00:00:00Z","services":[
  [["2001:db8::/32"],["https://rdap.example.ipv6/"]]
]}`

func registerHappyPath(t *testing.T, baseURI string) {
	t.Helper()
	httpmock.RegisterResponder("GET", baseURI+"asn.json", httpmock.NewStringResponder(200, asnJSON))
	httpmock.RegisterResponder("GET", baseURI+"dns.json", httpmock.NewStringResponder(200, dnsJSON))
	httpmock.RegisterResponder("GET", baseURI+"ipv4.json", httpmock.NewStringResponder(200, ipv4JSON))
	httpmock.RegisterResponder("GET", baseURI+"ipv6.json", httpmock.NewStringResponder(200, ipv6JSON))
}

func newTestScraper(t *testing.T) (*Scraper, *store.Store) {
	t.Helper()
	s := store.New(nil)
	sc := New(Config{
		BaseURI:        "https://data.iana.test/rdap/",
		RequestTimeout: 5 * time.Second,
	}, s, nil)
	httpmock.ActivateNonDefault(sc.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return sc, s
}

func TestRunCommitsOnAllFourSuccess(t *testing.T) {
	sc, s := newTestScraper(t)
	registerHappyPath(t, sc.cfg.BaseURI)

	err := sc.Run(context.Background())
	require.NoError(t, err)

	gen := s.Snapshot()
	h, ok := gen.ASNs.Lookup(1877)
	require.True(t, ok)
	a, ok := gen.Authorities.Authority(h)
	require.True(t, ok)
	assert.Equal(t, []string{"https://rdap.example.asn/"}, a.Servers)

	_, ok = gen.Domains.Lookup("example.uk")
	assert.True(t, ok)

	_, ok = gen.IPs.Lookup(net.ParseIP("192.0.2.1"))
	assert.True(t, ok)

	_, ok = gen.IPs.Lookup(net.ParseIP("2001:db8:1::1"))
	assert.True(t, ok)
}

func TestRunAbortsCycleOnSingleEndpointFailure(t *testing.T) {
	sc, s := newTestScraper(t)
	registerHappyPath(t, sc.cfg.BaseURI)
	httpmock.RegisterResponder("GET", sc.cfg.BaseURI+"dns.json", httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	before := s.Snapshot()

	err := sc.Run(context.Background())
	require.Error(t, err)

	after := s.Snapshot()
	assert.Same(t, before, after, "a failed cycle must leave the live generation untouched")
}

func TestRunRejectsUnsupportedVersion(t *testing.T) {
	sc, s := newTestScraper(t)
	registerHappyPath(t, sc.cfg.BaseURI)
	httpmock.RegisterResponder("GET", sc.cfg.BaseURI+"asn.json",
		httpmock.NewStringResponder(200, `{"version":"2.0","services":[]}`))

	before := s.Snapshot()
	err := sc.Run(context.Background())
	require.Error(t, err)
	assert.Same(t, before, s.Snapshot())
}

func TestRunAppliesRateLimit(t *testing.T) {
	s := store.New(nil)
	sc := New(Config{
		BaseURI:        "https://data.iana.test/rdap/",
		RequestTimeout: 5 * time.Second,
		RateLimit:      20 * time.Millisecond,
		BurstSize:      1,
	}, s, nil)
	httpmock.ActivateNonDefault(sc.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	require.NotNil(t, sc.limiter, "a positive RateLimit must construct a limiter")

	registerHappyPath(t, sc.cfg.BaseURI)

	start := time.Now()
	err := sc.Run(context.Background())
	require.NoError(t, err)

	// Four fetches with burst 1 and a 20ms minimum interval must take at
	// least 3 waits to clear the limiter.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRunAbortsOnMalformedResource(t *testing.T) {
	sc, s := newTestScraper(t)
	registerHappyPath(t, sc.cfg.BaseURI)
	httpmock.RegisterResponder("GET", sc.cfg.BaseURI+"asn.json",
		httpmock.NewStringResponder(200, `{"version":"1.0","services":[[["not-an-asn"],["https://rdap.example.asn/"]]]}`))

	before := s.Snapshot()
	err := sc.Run(context.Background())
	require.Error(t, err)
	assert.Same(t, before, s.Snapshot())
}
