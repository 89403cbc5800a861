package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/parrotops/internal/auth"
	"github.com/vbonduro/parrotops/internal/metrics"
	"github.com/vbonduro/parrotops/internal/service"
)

type Server struct {
	service  *service.WarehouseService
	verifier auth.Verifier
	metrics  *metrics.Metrics
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer builds the JSON API. m may be nil, in which case /metrics is
// not served and no request metrics are recorded.
func NewServer(svc *service.WarehouseService, verifier auth.Verifier, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		service:  svc,
		verifier: verifier,
		metrics:  m,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	requireAuth := auth.Middleware(s.verifier, s.logger)
	api := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, requireAuth(h))
	}

	api("GET /api/bins", s.handleListBins)
	api("GET /api/bins/{id}", s.handleGetBin)
	api("GET /api/lots", s.handleListLots)
	api("GET /api/lots/find", s.handleFindLots)
	api("GET /api/lots/{id}", s.handleGetLot)
	api("POST /api/lots/create", s.handleCreateLot)
	api("POST /api/lots/move", s.handleMoveLot)
	api("POST /api/bin/clean", s.handleCleanBin)
	api("GET /api/zone-layout", s.handleGetZoneLayout)
	api("GET /api/zones", s.handleGetZoneLayout)
	api("POST /api/zone-layout", s.handleSaveZoneLayout)
	api("GET /api/journal", s.handleListJournal)
}

// securityHeaders sets browser hardening and no-store headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID tags each request with an id, reusing a well-formed inbound
// X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// requestLogger logs and measures each request. The route label is the
// ServeMux pattern, which the mux sets on r while serving it.
func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		if m != nil {
			m.ObserveRequest(r.Method, r.Pattern, rec.status, elapsed)
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID(requestLogger(s.logger, s.metrics, securityHeaders(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
