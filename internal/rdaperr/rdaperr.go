// Package rdaperr renders the RDAP error object shape defined by RFC 7482
// §3.1, translating the directory package's error taxonomy into HTTP status
// codes and bodies. The core itself never touches HTTP; this is the
// "surrounding HTTP layer" collaborator spec.md §6 describes through
// interfaces only, given a minimal concrete body so the gateway is
// runnable end to end.
package rdaperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rdapgw/gateway/internal/directory"
)

// Object is the RDAP error response body.
type Object struct {
	RDAPConformance []string `json:"rdapConformance"`
	ErrorCode       int      `json:"errorCode"`
	Title           string   `json:"title"`
	Description     []string `json:"description,omitempty"`
}

// ForError maps err to the HTTP status and RDAP error Object the spec's
// propagation policy requires: 404 for ResourceNotFound, 400 for
// MalformedRequest, 500 otherwise.
func ForError(err error) (int, Object) {
	switch {
	case errors.Is(err, directory.ErrResourceNotFound):
		return http.StatusNotFound, Object{
			RDAPConformance: []string{"rdap_level_0"},
			ErrorCode:       http.StatusNotFound,
			Title:           "Not Found",
			Description:     []string{"no authority covers the requested resource"},
		}
	case errors.Is(err, directory.ErrMalformedRequest):
		return http.StatusBadRequest, Object{
			RDAPConformance: []string{"rdap_level_0"},
			ErrorCode:       http.StatusBadRequest,
			Title:           "Bad Request",
			Description:     []string{"the request could not be parsed"},
		}
	default:
		return http.StatusInternalServerError, Object{
			RDAPConformance: []string{"rdap_level_0"},
			ErrorCode:       http.StatusInternalServerError,
			Title:           "Internal Server Error",
		}
	}
}

// Write renders err as an RDAP error response onto w.
func Write(w http.ResponseWriter, err error) {
	status, obj := ForError(err)
	w.Header().Set("Content-Type", "application/rdap+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(obj)
}
