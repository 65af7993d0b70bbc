package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketloop/recommendations/internal/service"
	"github.com/marketloop/recommendations/pkg/health"
	"github.com/marketloop/recommendations/pkg/httputil"
	"github.com/marketloop/recommendations/pkg/middleware"
)

// ServiceName identifies this service in logs, metrics, and the index payload.
const ServiceName = "recommendations"

// ServiceVersion is reported by the index endpoint.
const ServiceVersion = "1.0.0"

// NewRouter creates a chi router with all recommendation service routes
// registered.
func NewRouter(
	recommendationService *service.RecommendationService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))

	// Service metadata and health endpoints
	r.Get("/", indexHandler)
	r.Get("/health", healthOKHandler)
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Recommendation API endpoints
	recommendationHandler := NewRecommendationHandler(recommendationService, logger)

	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/", recommendationHandler.List)
		r.Get("/filter", recommendationHandler.Filter)
		r.Get("/{id}", recommendationHandler.Get)
		r.Delete("/{id}", recommendationHandler.Delete)
		r.Get("/{id}/likes", recommendationHandler.GetLikes)
		r.Post("/{id}/likes", recommendationHandler.Like)

		// Body-carrying routes enforce the JSON content type.
		r.With(ContentTypeJSON).Post("/", recommendationHandler.Create)
		r.With(ContentTypeJSON).Put("/{id}", recommendationHandler.Update)
	})

	return r
}

// indexHandler returns service metadata for GET /.
func indexHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "Recommendations REST API Service",
		"version": ServiceVersion,
		"paths": map[string]string{
			"create":  "POST /recommendations",
			"list":    "GET /recommendations",
			"filter":  "GET /recommendations/filter",
			"get":     "GET /recommendations/{id}",
			"update":  "PUT /recommendations/{id}",
			"delete":  "DELETE /recommendations/{id}",
			"like":    "POST /recommendations/{id}/likes",
			"likes":   "GET /recommendations/{id}/likes",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}

// healthOKHandler is the flat health probe used by simple monitors.
func healthOKHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
