// Package gateway exposes a Registry over HTTP for off-ledger deployments.
//
// Caller identities are read from request headers set by an upstream authenticating proxy.
// The gateway trusts those headers and never verifies credentials itself.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperledger/fabric/common/flogging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certregistry/events"
	"certregistry/internal/platform/metrics"
	"certregistry/registry"
)

var logger = flogging.MustGetLogger("certregistry.gateway")

// Default identity headers.
const (
	DefaultIdentityHeader = "X-Registry-Identity"
	DefaultAdminHeader    = "X-Registry-Admin-Identity"
)

// maxBodyBytes bounds request bodies; a full bulk upload fits comfortably.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to a Registry.
type Server struct {
	registry       *registry.Registry
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	recorder       *events.Recorder
	identityHeader string
	adminHeader    string
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records operation metrics in m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithRecorder serves the recorder's recent events on /v1/events.
func WithRecorder(r *events.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithIdentityHeaders overrides the caller and admin identity header names.
func WithIdentityHeaders(identity, admin string) Option {
	return func(s *Server) {
		if identity != "" {
			s.identityHeader = identity
		}
		if admin != "" {
			s.adminHeader = admin
		}
	}
}

// New creates a Server for reg.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry:       reg,
		identityHeader: DefaultIdentityHeader,
		adminHeader:    DefaultAdminHeader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the gateway router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/registry/initialize", s.handleInitialize)
		r.Get("/registry/admin", s.handleGetAdmin)

		r.Post("/institutes", s.handleRegisterInstitute)
		r.Get("/institutes", s.handleListInstitutes)
		r.Get("/institutes/me", s.handleGetInstituteDetails)
		r.Get("/institutes/{identity}", s.handleGetInstituteByIdentity)

		r.Post("/certificates", s.handlePostCertificate)
		r.Post("/certificates/bulk", s.handleBulkUpload)

		r.Get("/students/me", s.handleGetStudentRecord)
		r.Get("/students/me/certificates", s.handleGetStudentDetails)

		if s.recorder != nil {
			r.Get("/events", s.handleRecentEvents)
		}
	})
	return r
}

// requestID keeps an inbound X-Request-Id or assigns a new one, and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs each request once it completes.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debugf("%s %s -> %d in %s (request %s)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("failed to encode response: %v", err)
	}
}
