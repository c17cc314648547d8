package authority

import "errors"

// ErrAmbiguousAuthority is returned by FindByServerURIs when the queried URI
// set intersects more than one registered authority.
var ErrAmbiguousAuthority = errors.New("authority: ambiguous authority for server URI set")

// ErrServerConflict is returned by AddServers when a URI is already claimed
// by a different authority.
var ErrServerConflict = errors.New("authority: server URI already claimed by another authority")

// ErrDuplicateAuthorityName is returned by CreateNamed when the requested
// name is already registered in this store.
var ErrDuplicateAuthorityName = errors.New("authority: name already registered")

// ErrEmptyServerSet is returned by CreateNamed when called with no server
// URIs; an operator-configured authority must advertise at least one.
var ErrEmptyServerSet = errors.New("authority: authority must have at least one server URI")
