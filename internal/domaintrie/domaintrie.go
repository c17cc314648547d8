// Package domaintrie implements the DNS label-suffix trie of the resource
// routing core. This generalises the right-to-left FQDN walk in
// bootstrap.DNSRegistry (see bootstrap/dns_registry.go), which only ever
// matched whole registered TLD/suffix strings via map lookups, into a true
// trie so that longest-suffix precedence (a more specific suffix such as
// "co.uk" beating a shorter "uk") is resolved structurally rather than by
// repeated map probes.
package domaintrie

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/authority"
)

type node struct {
	children map[string]*node
	handle   authority.Handle
	has      bool
}

// Trie is a reverse-label trie: edges are labelled by one lowercase DNS
// label, the root is the empty suffix.
type Trie struct {
	root *node
	log  *zap.Logger
}

// New creates an empty Trie.
func New(log *zap.Logger) *Trie {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trie{root: &node{children: map[string]*node{}}, log: log}
}

// Insert places authority at the node reached by consuming suffix's labels
// right-to-left. A prior occupant is overwritten and logged, matching
// IPRoutingTable.Insert's policy.
func (t *Trie) Insert(suffix string, a authority.Handle) {
	labels := splitLabels(suffix)
	n := t.root

	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]
		child, ok := n.children[label]
		if !ok {
			child = &node{children: map[string]*node{}}
			n.children[label] = child
		}
		n = child
	}

	if n.has && n.handle != a {
		t.log.Warn("domaintrie: overwriting existing authority at suffix",
			zap.String("suffix", suffix),
			zap.Uint64("previous_handle", uint64(n.handle)),
			zap.Uint64("new_handle", uint64(a)),
		)
	}
	n.handle = a
	n.has = true
}

// Lookup walks name's labels right-to-left from the root, descending as
// long as an edge matches, and returns the authority of the deepest
// visited node that carries one (longest suffix match).
func (t *Trie) Lookup(name string) (authority.Handle, bool) {
	labels := splitLabels(name)
	n := t.root

	var bestHandle authority.Handle
	var bestFound bool

	if n.has {
		bestHandle, bestFound = n.handle, true
	}

	for i := len(labels) - 1; i >= 0; i-- {
		child, ok := n.children[labels[i]]
		if !ok {
			break
		}
		n = child
		if n.has {
			bestHandle, bestFound = n.handle, true
		}
	}

	return bestHandle, bestFound
}

func splitLabels(name string) []string {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}
