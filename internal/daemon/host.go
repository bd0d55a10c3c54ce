package daemon

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// ToolServer is the subset of mcpserver.ToolServer the daemon needs: the
// bare streamable-HTTP handler, with no path of its own, so the daemon's
// own chi router can mount it at /sse, /messages, and /mcp directly.
// Declared locally to avoid an import cycle between internal/daemon and
// internal/mcpserver.
type ToolServer interface {
	StreamHandler() http.Handler
}

// Host is one module's long-lived HTTP server: the MCP transport plus
// /healthz and /metrics, routed with chi the way
// apps/ReleaseParty/backend/internal/api.Server.Router does.
type Host struct {
	Module string
	tools  ToolServer
	metrics *Metrics
	reg     *prometheus.Registry
	log     *log.Logger
}

// NewHost builds a Host for the named module.
func NewHost(module string, tools ToolServer, logger *log.Logger) *Host {
	m, reg := NewMetrics()
	return &Host{Module: module, tools: tools, metrics: m, reg: reg, log: logger}
}

// Metrics exposes the host's metrics collectors. Nothing in this repository
// calls ObservePlan or ObserveCache on them, so /metrics serves the
// collectors without recorded plan outcomes or cache hits.
func (h *Host) Metrics() *Metrics { return h.metrics }

// Router builds the chi router serving this module's daemon endpoints.
// /sse and /messages are both routed onto the same streamable-HTTP handler:
// the underlying go-sdk transport multiplexes the legacy SSE/POST split
// spec §4.12 describes onto its single streamable endpoint, so both paths
// are kept for StdioProxy/editor compatibility but resolve identically.
func (h *Host) Router() http.Handler {
	r := chi.NewRouter()

	mcpHandler := h.tools.StreamHandler()
	r.Handle("/sse", mcpHandler)
	r.Handle("/messages", mcpHandler)
	r.Handle("/mcp", mcpHandler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", Handler(h.reg))

	return r
}

// ListenAndServe binds to addr (loopback by default per spec §4.12) and
// blocks serving this module's router.
func (h *Host) ListenAndServe(addr string) error {
	h.log.Printf("%s daemon listening on %s", h.Module, addr)
	return http.ListenAndServe(addr, h.Router())
}
