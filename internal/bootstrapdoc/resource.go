package bootstrapdoc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseASNRange parses an asn.json resource string ("N" or "N-M") into a
// [low, high] pair, matching the RFC 7484 §5.3 format. This follows the
// same trim-and-split approach as bootstrap.parseASNRange (see
// bootstrap/asn_registry.go) but returns an error instead of silently
// skipping malformed entries, since the gateway treats a malformed
// resource string as cause to abort the whole refresh cycle (§4.7).
func ParseASNRange(s string) (low, high uint32, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 1 && len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: malformed ASN range %q", ErrMalformedDocument, s)
	}

	lo, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed ASN %q: %s", ErrMalformedDocument, s, err)
	}

	hi := lo
	if len(parts) == 2 {
		hi, err = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: malformed ASN %q: %s", ErrMalformedDocument, s, err)
		}
	}

	if lo > hi {
		lo, hi = hi, lo
	}
	return uint32(lo), uint32(hi), nil
}

// NormalizeTLD lowercases and strips a trailing dot from a dns.json
// resource string.
func NormalizeTLD(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, ".")
}
