package handler

import (
	"net/http"

	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Usage & metrics — GET /v1/usage, GET /v1/metrics/ai
// ============================================================

func usageHandler(svc *service.UsageService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/usage")
		defer span.End()

		shop := ShopFromContext(ctx)
		quota, err := svc.CheckQuota(ctx, shop)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"plan":      shop.Plan,
			"used":      quota.Used,
			"limit":     quota.Limit,
			"remaining": quota.Limit - quota.Used,
		})
	}
}

func aiMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/ai")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetAISnapshot())
	}
}
