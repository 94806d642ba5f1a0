package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Writing samples — /v1/writing-samples
// ============================================================

func listSamplesHandler(svc *service.SampleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/writing-samples")
		defer span.End()

		shop := ShopFromContext(ctx)
		samples, err := svc.List(ctx, shop)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if samples == nil {
			samples = []domain.WritingSample{}
		}
		writeJSON(w, http.StatusOK, samples)
	}
}

func createSampleHandler(svc *service.SampleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/writing-samples")
		defer span.End()

		var req domain.CreateWritingSampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		shop := ShopFromContext(ctx)
		sample, err := svc.Create(ctx, shop, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sample)
	}
}

func deleteSampleHandler(svc *service.SampleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/writing-samples/{sampleId}")
		defer span.End()

		shop := ShopFromContext(ctx)
		if err := svc.Delete(ctx, shop, chi.URLParam(r, "sampleId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
