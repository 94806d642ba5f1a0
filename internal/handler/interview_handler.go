package handler

import (
	"encoding/json"
	"net/http"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Business-profile interview — /v1/business-profile/*
// ============================================================

func profileStatusHandler(svc *service.InterviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/business-profile")
		defer span.End()

		shop := ShopFromContext(ctx)
		status, err := svc.Status(ctx, shop)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func startInterviewHandler(svc *service.InterviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/business-profile/start")
		defer span.End()

		var req domain.StartInterviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		shop := ShopFromContext(ctx)
		progress, err := svc.Start(ctx, shop, req.Mode)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func submitAnswerHandler(svc *service.InterviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/business-profile/answer")
		defer span.End()

		var req domain.SubmitAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		shop := ShopFromContext(ctx)
		progress, err := svc.SubmitAnswer(ctx, shop, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func resetInterviewHandler(svc *service.InterviewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/business-profile/reset")
		defer span.End()

		shop := ShopFromContext(ctx)
		if err := svc.Reset(ctx, shop); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": domain.StatusNotStarted})
	}
}

func generateProfileHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/business-profile/generate")
		defer span.End()

		shop := ShopFromContext(ctx)
		result, err := svc.Generate(ctx, shop)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func regenerateProfileHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/business-profile/regenerate")
		defer span.End()

		shop := ShopFromContext(ctx)
		result, err := svc.Regenerate(ctx, shop)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
