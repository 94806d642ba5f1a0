package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Content generation — /v1/iterate-image, /v1/enhance-description
// ============================================================

func iterateImageHandler(svc *service.GenerationService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/iterate-image")
		defer span.End()

		var req domain.IterateImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		shop := ShopFromContext(ctx)
		start := time.Now()
		result, err := svc.IterateImage(ctx, shop, &req)
		metrics.RecordRequestDuration("iterate_image", time.Since(start))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func enhanceDescriptionHandler(svc *service.GenerationService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/enhance-description")
		defer span.End()

		var req domain.EnhanceDescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		shop := ShopFromContext(ctx)
		start := time.Now()
		result, err := svc.EnhanceDescription(ctx, shop, &req)
		metrics.RecordRequestDuration("enhance_description", time.Since(start))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
