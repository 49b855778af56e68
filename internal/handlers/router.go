package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/middleware"
	"github.com/ukydev/safe-route/internal/models"
)

// RateLimit configures the per-IP limit on route searches.
type RateLimit struct {
	Max           int
	WindowSeconds int
}

func corsHandler(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(h)
}

// NewFrontendRouter builds the saferoute HTTP surface.
func NewFrontendRouter(h *RouteHandler, status http.Handler, limit RateLimit, logger *logrus.Entry) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	limiter := middleware.NewRateLimitMiddleware()
	r.Handle("/api/route", limiter.RateLimit(limit.Max, limit.WindowSeconds)(http.HandlerFunc(h.FindRoute))).Methods(http.MethodPost)
	r.HandleFunc("/api/heatmap/toggle", h.ToggleHeatmap).Methods(http.MethodPost)
	r.HandleFunc("/api/state", h.State).Methods(http.MethodGet)
	r.HandleFunc("/api/legend", h.Legend).Methods(http.MethodGet)
	r.HandleFunc("/health", Health).Methods(http.MethodGet)
	if status != nil {
		r.Handle("/ws/status", status).Methods(http.MethodGet)
	}
	return corsHandler(r)
}

// NewRiskRouter builds the riskd HTTP surface. With authMW set, the data
// endpoints require a bearer token with the risk scope.
func NewRiskRouter(risk *RiskHandler, tokens *TokenHandler, authMW *middleware.AuthMiddleware, logger *logrus.Entry) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	r.HandleFunc("/health", Health).Methods(http.MethodGet)
	if tokens != nil {
		r.HandleFunc("/api/auth/token", tokens.IssueToken).Methods(http.MethodPost)
	}

	api := r.PathPrefix("/api").Subrouter()
	if authMW != nil {
		api.Use(authMW.Authenticate, authMW.RequireScope(models.ScopeRisk))
	}
	api.HandleFunc("/accidents", risk.Accidents).Methods(http.MethodGet)
	api.HandleFunc("/find_safe_route", risk.FindSafeRoute).Methods(http.MethodPost)
	return corsHandler(r)
}
