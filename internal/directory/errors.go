package directory

import "errors"

// ErrResourceNotFound is returned when no authority covers the queried
// resource.
var ErrResourceNotFound = errors.New("directory: no authority covers the queried resource")

// ErrMalformedRequest is returned when the caller's input fails syntactic
// validation (bad CIDR, bad ASN, bad domain name, bad entity handle).
var ErrMalformedRequest = errors.New("directory: malformed request")
