// Package gatewayhttp is the minimal HTTP front end that exercises the
// routing core through a real caller: it splits an inbound RDAP request
// path into a request kind and key, asks the Directory which authority
// owns it, and reverse-proxies to that authority's first server URI. Full
// RDAP protocol fidelity (response caching, content negotiation, strict
// RFC 7482 path validation) is explicitly out of scope per spec.md §1; this
// exists so the core has a concrete, runnable caller.
package gatewayhttp

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/authority"
	"github.com/rdapgw/gateway/internal/directory"
	"github.com/rdapgw/gateway/internal/rdaperr"
	"github.com/rdapgw/gateway/internal/scheduler"
)

// Handler is the gateway's HTTP entry point.
type Handler struct {
	dir       *directory.Directory
	scheduler *scheduler.Scheduler
	log       *zap.Logger
}

// New creates a Handler dispatching lookups to dir. scheduler is optional
// and only used by the /health endpoint to report whether the most recent
// bootstrap cycle failed.
func New(dir *directory.Directory, sched *scheduler.Scheduler, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{dir: dir, scheduler: sched, log: log}
}

// Routes returns the gateway's http.Handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/help", h.handleHelp)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/autnum/", h.handleAutnum)
	mux.HandleFunc("/ip/", h.handleIP)
	mux.HandleFunc("/domain/", h.handleDomain)
	mux.HandleFunc("/nameserver/", h.handleNameserver)
	mux.HandleFunc("/entity/", h.handleEntity)
	return mux
}

func (h *Handler) handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/rdap+json")
	_, _ = w.Write([]byte(`{"rdapConformance":["rdap_level_0"],"notices":[{"title":"Help","description":["This is an RDAP routing gateway. See RFC 7482 for query syntax."]}]}`))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	last := h.scheduler.LastResult()
	if last.Err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(last.Err.Error()))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleAutnum(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/autnum/")
	asn, err := directory.ParseASN(key)
	if err != nil {
		rdaperr.Write(w, err)
		return
	}
	a, err := h.dir.AutnumAuthority(asn)
	h.dispatch(w, r, a, err)
}

func (h *Handler) handleIP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/ip/")
	a, err := h.dir.IPAuthority(key)
	h.dispatch(w, r, a, err)
}

func (h *Handler) handleDomain(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/domain/")
	a, err := h.dir.DomainAuthority(key)
	h.dispatch(w, r, a, err)
}

func (h *Handler) handleNameserver(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/nameserver/")
	a, err := h.dir.NameserverAuthority(key)
	h.dispatch(w, r, a, err)
}

func (h *Handler) handleEntity(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/entity/")
	a, err := h.dir.EntityAuthority(key)
	h.dispatch(w, r, a, err)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, a *authority.Authority, err error) {
	if err != nil {
		rdaperr.Write(w, err)
		return
	}
	if len(a.Servers) == 0 {
		rdaperr.Write(w, directory.ErrResourceNotFound)
		return
	}

	target, perr := url.Parse(a.Servers[0])
	if perr != nil {
		h.log.Error("gatewayhttp: authority has unparsable server URI", zap.String("authority", a.Name), zap.Error(perr))
		rdaperr.Write(w, perr)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ServeHTTP(w, r)
}
