// Package authority implements the canonical registry of RDAP authorities.
//
// An Authority represents one RDAP-serving organisation: a name, a set of
// base server URIs, and optional aliases. The Store is the single source
// of truth for URI ownership — the routing maps hold only handles into it.
package authority

import (
	"crypto/sha1"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies an Authority without pinning its lifetime to a map node.
type Handle uint64

// Authority represents one RDAP-serving organisation.
type Authority struct {
	handle  Handle
	Name    string
	Servers []string // canonicalised, sorted, de-duplicated
	Aliases []string
}

// Handle returns the stable identifier maps should store instead of a pointer.
func (a *Authority) Handle() Handle {
	return a.handle
}

// Store is the canonical registry of Authority records. It deduplicates by
// the set of RDAP server URIs an authority advertises, and is the only
// component allowed to mutate Authority instances.
type Store struct {
	mu         sync.Mutex
	byHandle   map[Handle]*Authority
	byName     map[string]Handle
	byServer   map[string]Handle // canonical URI -> handle
	nextHandle Handle
}

// NewStore creates an empty AuthorityStore.
func NewStore() *Store {
	return &Store{
		byHandle: make(map[Handle]*Authority),
		byName:   make(map[string]Handle),
		byServer: make(map[string]Handle),
	}
}

// FindByName returns the authority registered under name, if any.
func (s *Store) FindByName(name string) (*Authority, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.byHandle[h], true
}

// FindByServerURIs returns the authority whose server set intersects uris,
// if any. It fails with ErrAmbiguousAuthority if more than one registered
// authority claims a URI in the set.
func (s *Store) FindByServerURIs(uris []string) (*Authority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found Handle
	seen := false

	for _, raw := range uris {
		canon, err := CanonicalizeURI(raw)
		if err != nil {
			continue
		}

		h, ok := s.byServer[canon]
		if !ok {
			continue
		}

		if !seen {
			found = h
			seen = true
		} else if h != found {
			return nil, ErrAmbiguousAuthority
		}
	}

	if !seen {
		return nil, nil
	}
	return s.byHandle[found], nil
}

// CreateAnonymous mints an authority with a synthetic name and no servers
// yet. The identity is a hash of the caller-supplied seed URIs (typically the
// server set about to be attached), canonicalised and sorted, so that
// repeated refreshes of an
// unchanged IANA entry do not churn authority identity across generations —
// see the anonymous-identity open question.
func (s *Store) CreateAnonymous(seedURIs []string) *Authority {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := anonymousName(seedURIs)

	if h, ok := s.byName[name]; ok {
		return s.byHandle[h]
	}

	s.nextHandle++
	h := s.nextHandle
	a := &Authority{handle: h, Name: name}
	s.byHandle[h] = a
	s.byName[name] = h
	return a
}

// CreateNamed registers an authority under an operator-chosen name with a
// non-empty, operator-supplied server set (spec.md §1/§3: authorities may be
// "created by the scraper or by operator configuration", the latter
// bypassing the bootstrap scrape entirely). Unlike CreateAnonymous, the name
// is caller-chosen rather than synthesised from the server set, so a
// repeated name is a configuration error (ErrDuplicateAuthorityName) rather
// than something the store resolves on the caller's behalf.
func (s *Store) CreateNamed(name string, servers []string) (*Authority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(servers) == 0 {
		return nil, ErrEmptyServerSet
	}
	if _, exists := s.byName[name]; exists {
		return nil, ErrDuplicateAuthorityName
	}

	canon := make([]string, 0, len(servers))
	for _, raw := range servers {
		c, err := CanonicalizeURI(raw)
		if err != nil {
			return nil, err
		}
		if _, claimed := s.byServer[c]; claimed {
			return nil, ErrServerConflict
		}
		canon = append(canon, c)
	}
	sort.Strings(canon)
	canon = dedupeSorted(canon)

	s.nextHandle++
	h := s.nextHandle
	a := &Authority{handle: h, Name: name, Servers: canon}
	s.byHandle[h] = a
	s.byName[name] = h
	for _, c := range canon {
		s.byServer[c] = h
	}
	return a, nil
}

// AddServers extends authority's server set with uris, canonicalising each
// first. It fails with ErrServerConflict if any URI is already claimed by a
// different authority.
func (s *Store) AddServers(a *Authority, uris []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	canon := make([]string, 0, len(uris))
	for _, raw := range uris {
		c, err := CanonicalizeURI(raw)
		if err != nil {
			continue
		}
		if existing, ok := s.byServer[c]; ok && existing != a.handle {
			return ErrServerConflict
		}
		canon = append(canon, c)
	}

	for _, c := range canon {
		if _, already := s.byServer[c]; already {
			continue
		}
		s.byServer[c] = a.handle
		a.Servers = append(a.Servers, c)
	}

	sort.Strings(a.Servers)
	a.Servers = dedupeSorted(a.Servers)
	return nil
}

// Authority looks up an authority by handle.
func (s *Store) Authority(h Handle) (*Authority, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byHandle[h]
	return a, ok
}

// CanonicalizeURI lowercases the scheme and host, strips the default port,
// and retains the path (with its trailing slash, if present).
func CanonicalizeURI(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}

	hostport := host
	if port != "" {
		hostport = host + ":" + port
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	out := scheme + "://" + hostport + path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}

func anonymousName(seedURIs []string) string {
	sorted := make([]string, 0, len(seedURIs))
	for _, u := range seedURIs {
		if c, err := CanonicalizeURI(u); err == nil {
			u = c
		}
		sorted = append(sorted, u)
	}
	sort.Strings(sorted)

	h := sha1.New()
	for _, u := range sorted {
		h.Write([]byte(u))
		h.Write([]byte{0})
	}

	id := uuid.NewSHA1(uuid.Nil, h.Sum(nil))
	return "anon-" + id.String()
}

func dedupeSorted(in []string) []string {
	out := in[:0]
	var prev string
	for i, v := range in {
		if i == 0 || v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return out
}
