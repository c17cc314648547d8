// Package scraper implements the BootstrapScraper: it fetches IANA's four
// JSON bootstrap documents in parallel, validates and parses each, and
// materialises the authorities and resource mappings they describe into a
// staging store.Builder before committing all four atomically. This
// generalises bootstrap.Client.DownloadAll (see bootstrap/client.go), which
// downloaded sequentially and stored each registry independently with no
// shared commit point.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rdapgw/gateway/internal/asnmap"
	"github.com/rdapgw/gateway/internal/bootstrapdoc"
	"github.com/rdapgw/gateway/internal/iptable"
	"github.com/rdapgw/gateway/internal/store"
)

// Endpoint identifies one of the four IANA bootstrap files.
type Endpoint int

const (
	ASN Endpoint = iota
	DNS
	IPv4
	IPv6
)

func (e Endpoint) filename() string {
	switch e {
	case ASN:
		return "asn.json"
	case DNS:
		return "dns.json"
	case IPv4:
		return "ipv4.json"
	case IPv6:
		return "ipv6.json"
	default:
		panic("scraper: unknown endpoint")
	}
}

var allEndpoints = []Endpoint{ASN, DNS, IPv4, IPv6}

// Config configures a Scraper, mirroring the bootstrap.* configuration keys
// of spec.md §6.
type Config struct {
	BaseURI            string
	RequestTimeout      time.Duration
	SupportedVersions   map[string]bool

	// RateLimit is the minimum interval between requests to the base URI
	// (0 disables limiting); see rate.Every. BurstSize defaults to 4 — one
	// cycle's worth of endpoint fetches — when RateLimit > 0 and BurstSize
	// is 0.
	RateLimit time.Duration
	BurstSize int
}

// Scraper performs one bootstrap scrape cycle: four parallel HTTP fetches,
// parse, authority materialisation, staged mapping inserts, then a single
// commit.
type Scraper struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	store   *store.Store
	log     *zap.Logger
}

// New creates a Scraper that commits into s.
func New(cfg Config, s *store.Store, log *zap.Logger) *Scraper {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SupportedVersions == nil {
		cfg.SupportedVersions = bootstrapdoc.SupportedVersions
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 4
		}
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), burst)
	}

	return &Scraper{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: limiter,
		store:   s,
		log:     log,
	}
}

// Run executes one scrape cycle. On success it commits the new generation
// into the Scraper's Store and returns nil. On any failure the whole cycle
// is abandoned — the live generation is left untouched — and the error is
// returned for the caller (normally ScraperScheduler) to log.
func (s *Scraper) Run(ctx context.Context) error {
	start := time.Now()
	builder := s.store.Stage()

	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range allEndpoints {
		ep := ep
		g.Go(func() error {
			return s.fetchAndStage(gctx, ep, builder)
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Warn("scraper: cycle aborted, live generation unchanged",
			zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return err
	}

	s.store.Commit(builder)
	s.log.Info("scraper: cycle committed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Scraper) fetchAndStage(ctx context.Context, ep Endpoint, b *store.Builder) error {
	body, err := s.fetch(ctx, ep)
	if err != nil {
		return fmt.Errorf("%s: %w", ep.filename(), err)
	}

	doc, err := bootstrapdoc.Parse(body, s.cfg.SupportedVersions)
	if err != nil {
		return fmt.Errorf("%s: %w", ep.filename(), err)
	}

	for _, svc := range doc.Services {
		if err := s.stageService(ep, svc, b); err != nil {
			return fmt.Errorf("%s: %w", ep.filename(), err)
		}
	}

	return nil
}

func (s *Scraper) stageService(ep Endpoint, svc bootstrapdoc.Service, b *store.Builder) error {
	a, err := b.Authorities().FindByServerURIs(svc.Servers)
	if err != nil {
		return err
	}
	if a == nil {
		a = b.Authorities().CreateAnonymous(svc.Servers)
	}
	if err := b.Authorities().AddServers(a, svc.Servers); err != nil {
		return err
	}

	for _, resource := range svc.Resources {
		switch ep {
		case ASN:
			low, high, err := bootstrapdoc.ParseASNRange(resource)
			if err != nil {
				return err
			}
			b.ASNs().Insert(asnmap.Range{Low: low, High: high}, a.Handle())
		case DNS:
			b.Domains().Insert(bootstrapdoc.NormalizeTLD(resource), a.Handle())
		case IPv4, IPv6:
			prefix, err := iptable.ParsePrefix(resource)
			if err != nil {
				return err
			}
			b.IPs().Insert(prefix, a.Handle())
		}
	}

	return nil
}

func (s *Scraper) fetch(ctx context.Context, ep Endpoint) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	target, err := url.JoinPath(s.cfg.BaseURI, ep.filename())
	if err != nil {
		return nil, fmt.Errorf("bad base URI: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("network error: unexpected status %s", strconv.Itoa(resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
