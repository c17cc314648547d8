// Package store implements the ResourceStore: an atomic handle to one
// immutable generation of the three routing maps. This is the Go-idiomatic
// rendering of §9's "future-based orchestration" note and the
// single-writer/many-reader swap pattern used by the reference gateway's
// Reload (see the reload.go example): build the new generation fully
// off to the side with no locks held, then publish it with one atomic
// store. Readers never block writers and vice versa.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/asnmap"
	"github.com/rdapgw/gateway/internal/authority"
	"github.com/rdapgw/gateway/internal/domaintrie"
	"github.com/rdapgw/gateway/internal/iptable"
)

// StaticAuthority is an operator-configured authority (spec.md §1/§3:
// authorities may be "created by the scraper or by operator configuration").
// Unlike a scraped authority, its name is the literal object-tag or handle
// suffix operators expect entity lookups to resolve against (e.g. "VRSN",
// "ARIN"), not a synthesised identifier.
type StaticAuthority struct {
	Name    string
	Servers []string
}

// Generation is an immutable snapshot of the three routing maps plus the
// authority store they reference. Once committed, a Generation is never
// mutated — a reader holding one observes a wholly consistent view for its
// entire lifetime, regardless of concurrent commits.
type Generation struct {
	Authorities *authority.Store
	IPs         *iptable.Table
	ASNs        *asnmap.Map
	Domains     *domaintrie.Trie
}

// Builder accumulates a new Generation off to the side. Its AuthorityStore
// is safe for concurrent use; its maps are not, so concurrent inserts into
// the same map must not happen. The scraper fills one Builder per refresh
// cycle from four goroutines, each inserting into a different map (IPv4 and
// IPv6 into the separate tries of the one IPRoutingTable).
type Builder struct {
	gen *Generation
}

// Authorities returns the builder's staging AuthorityStore.
func (b *Builder) Authorities() *authority.Store { return b.gen.Authorities }

// IPs returns the builder's staging IPRoutingTable.
func (b *Builder) IPs() *iptable.Table { return b.gen.IPs }

// ASNs returns the builder's staging ASNRangeMap.
func (b *Builder) ASNs() *asnmap.Map { return b.gen.ASNs }

// Domains returns the builder's staging DomainSuffixMap.
func (b *Builder) Domains() *domaintrie.Trie { return b.gen.Domains }

// Store holds one Generation at a time behind an atomic handle.
type Store struct {
	current atomic.Pointer[Generation]

	log *zap.Logger

	// statics are operator-configured authorities, re-seeded into every new
	// Generation's AuthorityStore at Stage time so a scraper rebuilding the
	// routing maps from scratch each cycle never drops them.
	statics []StaticAuthority

	// commitMu serialises Commit so concurrent committers apply in some
	// total order; the last one to acquire it wins, per spec.
	commitMu sync.Mutex
}

// New creates a Store holding one empty Generation.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{log: log}
	s.current.Store(emptyGeneration(log))
	return s
}

// SetStaticAuthorities installs the operator-configured authorities that
// every subsequent Stage call seeds into its Builder's AuthorityStore. It
// also replaces the live generation with an empty one holding only these
// authorities, so entity lookups resolve against them before the first
// scraper cycle commits; routing data committed earlier is dropped. It is
// not safe for concurrent use with Stage/Commit; callers set it once at
// startup before the scheduler runs.
func (s *Store) SetStaticAuthorities(statics []StaticAuthority) error {
	s.statics = statics
	gen := emptyGeneration(s.log)
	if err := seedStatics(gen, statics); err != nil {
		return err
	}
	s.current.Store(gen)
	return nil
}

func emptyGeneration(log *zap.Logger) *Generation {
	return &Generation{
		Authorities: authority.NewStore(),
		IPs:         iptable.New(log),
		ASNs:        asnmap.New(log),
		Domains:     domaintrie.New(log),
	}
}

func seedStatics(gen *Generation, statics []StaticAuthority) error {
	for _, sa := range statics {
		if _, err := gen.Authorities.CreateNamed(sa.Name, sa.Servers); err != nil {
			return fmt.Errorf("store: static authority %q: %w", sa.Name, err)
		}
	}
	return nil
}

// Snapshot returns the current Generation for a read. The returned value is
// safe to use after subsequent commits — it simply stops being "current".
func (s *Store) Snapshot() *Generation {
	return s.current.Load()
}

// Stage returns a mutable Builder initialised empty (but pre-seeded with any
// operator-configured static authorities), ready for a refresh cycle to
// populate.
func (s *Store) Stage() *Builder {
	gen := emptyGeneration(s.log)
	if err := seedStatics(gen, s.statics); err != nil {
		// Static authorities are validated once in SetStaticAuthorities;
		// a failure here would mean the configuration changed underneath
		// a running gateway, which callers are documented not to do.
		s.log.Error("store: failed to re-seed static authorities", zap.Error(err))
	}
	return &Builder{gen: gen}
}

// Commit atomically replaces the live generation with b's result.
// Concurrent commits are serialised by commitMu; the last committer to run
// wins, matching the spec's "last committer wins" rule.
func (s *Store) Commit(b *Builder) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.current.Store(b.gen)
	s.log.Info("store: committed new generation")
}
