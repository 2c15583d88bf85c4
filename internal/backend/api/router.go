package api

import (
	"log/slog"
	"net/http"

	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// Options configures the router.
type Options struct {
	JWTSecret string
	Logger    *slog.Logger
	Metrics   *Metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(st *store.Store, opts Options) http.Handler {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	authHandler := &AuthHandler{Store: st, JWTSecret: opts.JWTSecret}
	locationsHandler := &LocationsHandler{Store: st}

	authMW := AuthMiddleware(opts.JWTSecret, st)

	// Public.
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", authHandler.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Authenticated.
	mux.Handle("GET /api/profile", authMW(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("GET /api/areas", authMW(http.HandlerFunc(locationsHandler.Areas)))
	mux.Handle("GET /api/parks", authMW(http.HandlerFunc(locationsHandler.Parks)))

	for _, t := range domain.RecordTypes {
		h := &RecordsHandler{Store: st, Type: t, Metrics: metrics}
		base := "/api/" + t.Endpoint()
		mux.Handle("GET "+base, authMW(http.HandlerFunc(h.List)))
		mux.Handle("POST "+base+"/add", authMW(http.HandlerFunc(h.Add)))
		mux.Handle("POST "+base+"/update", authMW(http.HandlerFunc(h.Update)))
		mux.Handle("POST "+base+"/delete", authMW(http.HandlerFunc(h.Delete)))
		mux.Handle("GET "+base+"/logs", authMW(http.HandlerFunc(h.Logs)))
	}

	return LoggingMiddleware(logger)(metrics.Middleware(mux))
}
