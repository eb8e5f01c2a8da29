// Package server exposes the console HTTP API together with health,
// readiness, metrics, and debug endpoints.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubeadapt/kubeadapt-console/internal/discovery"
	"github.com/kubeadapt/kubeadapt-console/internal/editor"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// ReadinessChecker reports whether the console is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// ClusterStatus reports whether cluster-backed routes can be served.
type ClusterStatus interface {
	ClusterConnected() bool
}

// ClusterClient applies and deletes manifests and streams pod logs.
type ClusterClient interface {
	Apply(ctx context.Context, text string) (model.ApplyResult, error)
	Delete(ctx context.Context, text string) (model.ApplyResult, error)
	Logs(ctx context.Context, opts model.LogOptions) (io.ReadCloser, error)
}

// ResourceLister lists store-backed resource summaries.
type ResourceLister interface {
	List(kind, namespace string) (any, error)
}

// PodStatsSource returns the latest metrics-server sample for a pod.
type PodStatsSource interface {
	PodStats(namespace, name string) (model.PodStats, bool)
}

// StoreStats returns item counts per resource type for debugging.
type StoreStats interface {
	ItemCounts() map[string]int
}

// ErrorSource returns the currently active console errors.
type ErrorSource interface {
	GetActiveErrors() []consoleerrors.ConsoleError
}

// Options configures the HTTP listener and request handling.
type Options struct {
	Port              int // 0 lets the OS pick a free port
	APIKey            string
	MaxRequestBytes   int64
	RequestTimeout    time.Duration
	ErrorDisplayLimit int
	EnableDebug       bool
}

// Deps are the collaborators the routes call into. Cluster, ClusterStatus,
// Resources and Capabilities are nil when running without a cluster. Stats
// is nil when metrics-server is not available.
type Deps struct {
	Metrics       *observability.Metrics
	Readiness     ReadinessChecker
	Editor        *editor.Editor
	Cluster       ClusterClient
	ClusterStatus ClusterStatus
	Resources     ResourceLister
	Stats         PodStatsSource
	Store         StoreStats
	Errors        ErrorSource
	Capabilities  *discovery.Capabilities
}

// Server exposes the API, health, readiness, metrics, and debug endpoints.
type Server struct {
	httpServer *http.Server
	opts       Options
	deps       Deps
	listener   net.Listener
}

// NewServer creates a server on opts.Port. When opts.EnableDebug is true,
// pprof and debug endpoints are registered.
func NewServer(opts Options, deps Deps) *Server {
	s := &Server{opts: opts, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	s.api(mux, "POST /api/v1/manifests/render", s.handleRender)
	s.api(mux, "POST /api/v1/manifests/parse", s.handleParse)
	s.api(mux, "POST /api/v1/manifests/validate", s.handleValidate)
	s.api(mux, "GET /api/v1/templates", s.handleListTemplates)
	s.api(mux, "GET /api/v1/templates/{type}", s.handleGetTemplate)
	s.api(mux, "POST /api/v1/sessions", s.handleCreateSession)
	s.api(mux, "GET /api/v1/sessions/{id}", s.handleGetSession)
	s.api(mux, "DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	s.api(mux, "PUT /api/v1/sessions/{id}/form", s.handleUpdateForm)
	s.api(mux, "PUT /api/v1/sessions/{id}/yaml", s.handleApplyYAML)
	s.api(mux, "GET /api/v1/cluster", s.requireCluster(s.handleCluster))
	s.api(mux, "POST /api/v1/apply", s.requireCluster(s.handleApply))
	s.api(mux, "POST /api/v1/delete", s.requireCluster(s.handleDelete))
	s.api(mux, "GET /api/v1/resources/{kind}", s.requireCluster(s.handleListResources))
	s.stream(mux, "GET /api/v1/namespaces/{namespace}/pods/{pod}/logs", s.requireCluster(s.handleLogs))
	s.api(mux, "GET /api/v1/namespaces/{namespace}/pods/{pod}/stats", s.requireCluster(s.handlePodStats))

	if opts.EnableDebug {
		// pprof handlers, only enabled when KCONSOLE_DEBUG_ENDPOINTS=true
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		mux.HandleFunc("GET /debug/errors", s.handleDebugErrors)
		mux.HandleFunc("GET /debug/store", s.handleDebugStore)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address; after Start it is the bound address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening and serving HTTP in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	s.listener = ln
	// Update Addr to the actual address (important when port=0).
	s.httpServer.Addr = ln.Addr().String()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			_ = err // server exited with unexpected error; ignore during shutdown
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	ready := s.deps.Readiness.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"ready": ready})
}

func (s *Server) handleDebugErrors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Errors.GetActiveErrors())
}

func (s *Server) handleDebugStore(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, map[string]int{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.ItemCounts())
}
