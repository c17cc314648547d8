// Package bootstrapdoc parses IANA RDAP bootstrap documents (RFC 7484),
// generalising bootstrap.parse() (see bootstrap/parse.go) — which flattened
// services straight into a resource->URLs map — into a typed Document that
// preserves each BootstrapService's resource list and server URIs, so the
// scraper can materialise authorities (deduplicating by server-URI set)
// before committing resource mappings.
package bootstrapdoc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SupportedVersions is the default set of bootstrap document versions this
// gateway accepts, per spec.md §3 and the bootstrap.supportedVersions
// configuration key.
var SupportedVersions = map[string]bool{"1.0": true}

// Service is one entry from an IANA bootstrap document: the resources it
// covers (ASN ranges, IP prefixes, or TLDs, depending on document kind) and
// the server URIs of the authority responsible for them.
type Service struct {
	Resources []string
	Servers   []string
}

// Document is a parsed IANA bootstrap document.
type Document struct {
	Version     string
	Publication string
	Description string
	Services    []Service
}

// ErrUnsupportedVersion is returned when a document's version is absent or
// not in the supported set; the document is rejected entire.
var ErrUnsupportedVersion = errors.New("bootstrapdoc: unsupported or missing version")

// ErrMalformedDocument is returned when the JSON is malformed or fails the
// RFC 7484 services-array schema.
var ErrMalformedDocument = errors.New("bootstrapdoc: malformed document")

// Parse decodes raw JSON into a Document and validates its version against
// supported. The entire document is rejected (no partial Document returned)
// if the version check or services-array schema check fails.
func Parse(raw []byte, supported map[string]bool) (*Document, error) {
	var wire struct {
		Version     string     `json:"version"`
		Publication string     `json:"publication"`
		Description string     `json:"description"`
		Services    [][][]string `json:"services"`
	}

	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedDocument, err)
	}

	if wire.Version == "" || !supported[wire.Version] {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedVersion, wire.Version)
	}

	doc := &Document{
		Version:     wire.Version,
		Publication: wire.Publication,
		Description: wire.Description,
	}

	for _, svc := range wire.Services {
		if len(svc) != 2 {
			return nil, fmt.Errorf("%w: service entry must have exactly 2 elements, got %d", ErrMalformedDocument, len(svc))
		}
		resources, servers := svc[0], svc[1]
		if len(servers) == 0 {
			continue
		}
		doc.Services = append(doc.Services, Service{Resources: resources, Servers: servers})
	}

	return doc, nil
}
