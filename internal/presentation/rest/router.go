package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/pkg/auth"
)

// RouterConfig collects what the HTTP surface serves. Metrics may be nil.
type RouterConfig struct {
	Logger   *slog.Logger
	JWT      *auth.JWTService
	Metrics  http.Handler
	Checks   map[string]Check
	UseCases usecase.Set
}

// NewRouter builds the HTTP handler: health checks and /metrics unauthenticated,
// the loan API under /api/v1 behind token auth.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	NewHealthHandler(cfg.Logger, cfg.Checks).RegisterRoutes(r)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.HTTPMiddleware(cfg.JWT))
	NewLoanHandler(cfg.UseCases, cfg.Logger).RegisterRoutes(api)

	return loggingMiddleware(cfg.Logger, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
