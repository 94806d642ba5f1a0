package handler

import (
	"net/http"
	"time"

	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router wires handlers to.
type Services struct {
	Session    *service.SessionService
	Interview  *service.InterviewService
	Profile    *service.ProfileService
	Generation *service.GenerationService
	Usage      *service.UsageService
	Samples    *service.SampleService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Everything under /v1 except the bootstrap and webhook routes requires
// a resolved shop.
func NewRouter(svcs Services, apiSecret string, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Public: first embedded load & host webhooks
		// =============================================
		r.Get("/session/bootstrap", bootstrapHandler(svcs.Session, logger))
		r.Post("/webhooks/app-uninstalled", appUninstalledHandler(svcs.Session, apiSecret, logger))

		// =============================================
		// Authenticated shop routes
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(ShopAuthMiddleware(svcs.Session, logger))

			// Business-profile interview
			r.Get("/business-profile", profileStatusHandler(svcs.Interview, logger))
			r.Post("/business-profile/start", startInterviewHandler(svcs.Interview, logger))
			r.Post("/business-profile/answer", submitAnswerHandler(svcs.Interview, logger))
			r.Post("/business-profile/reset", resetInterviewHandler(svcs.Interview, logger))
			r.Post("/business-profile/generate", generateProfileHandler(svcs.Profile, logger))
			r.Post("/business-profile/regenerate", regenerateProfileHandler(svcs.Profile, logger))

			// Content generation
			r.Post("/iterate-image", iterateImageHandler(svcs.Generation, metrics, logger))
			r.Post("/enhance-description", enhanceDescriptionHandler(svcs.Generation, metrics, logger))

			// Usage & metrics
			r.Get("/usage", usageHandler(svcs.Usage, logger))
			r.Get("/metrics/ai", aiMetricsHandler(metrics, logger))

			// Writing samples
			r.Get("/writing-samples", listSamplesHandler(svcs.Samples, logger))
			r.Post("/writing-samples", createSampleHandler(svcs.Samples, logger))
			r.Delete("/writing-samples/{sampleId}", deleteSampleHandler(svcs.Samples, logger))
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler() http.HandlerFunc {
	start := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "healthy",
			"uptime_seconds": int(time.Since(start).Seconds()),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
