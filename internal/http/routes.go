package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/target/ticketgate/internal/observability/metrics"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Dispatch DispatchRunner
	Records  RecordReader

	// Optional: token bucket guarding POST /api/dispatch.
	ManualLimiter *rate.Limiter
	// Optional: Prometheus request metrics and the /metrics handler.
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	// Optional: comment interval on stream connections.
	StreamHeartbeat time.Duration

	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if services.Dispatch != nil {
		registerDispatchRoutes(mux, &DispatchHandlers{Svc: services.Dispatch, Logger: logger}, services.ManualLimiter)
	}
	if services.Records != nil {
		registerRecordRoutes(mux, &RecordHandlers{Svc: services.Records, Heartbeat: services.StreamHeartbeat, Logger: logger})
	}

	mux.Handle("GET /healthz", metrics.WithRoute("/healthz", http.HandlerFunc(healthHandler)))
	mux.Handle("HEAD /healthz", metrics.WithRoute("/healthz", http.HandlerFunc(healthHandler)))
	if services.MetricsHandler != nil {
		mux.Handle("GET /metrics", services.MetricsHandler)
	}

	return services.HTTPMetrics.Middleware(mux)
}

func registerDispatchRoutes(mux *http.ServeMux, h *DispatchHandlers, limiter *rate.Limiter) {
	trigger := RateLimit(limiter)(http.HandlerFunc(h.Trigger))
	mux.Handle("POST /api/dispatch", metrics.WithRoute("/api/dispatch", trigger))
	mux.Handle("GET /api/dispatch/config", metrics.WithRoute("/api/dispatch/config", http.HandlerFunc(h.Config)))
}

func registerRecordRoutes(mux *http.ServeMux, h *RecordHandlers) {
	routes := map[string]http.HandlerFunc{
		"/api/dispatch/records":  h.List,
		"/api/dispatch/stats":    h.Stats,
		"/api/dispatch/daily":    h.Daily,
		"/api/dispatch/overview": h.Overview,
		"/api/dispatch/stream":   h.Stream,
	}
	for path, fn := range routes {
		mux.Handle("GET "+path, metrics.WithRoute(path, fn))
	}
}
