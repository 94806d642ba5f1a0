package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thundertext/thunder-api/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// apiResponse is the uniform envelope every endpoint returns.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorDetails(w, status, msg, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{
		Success: false,
		Error:   &apiError{Message: msg, Details: details},
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var wordCount *domain.ErrWordCount
	var unauthorized *domain.ErrUnauthorized
	var tokenExchange *domain.ErrTokenExchange
	var shopInactive *domain.ErrShopInactive
	var quotaExceeded *domain.ErrQuotaExceeded
	var contentPolicy *domain.ErrContentPolicy
	var duplicate *domain.ErrDuplicate
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &wordCount):
		logger.Debug("answer below minimum word count", zap.String("prompt_key", wordCount.PromptKey))
		writeErrorDetails(w, http.StatusBadRequest, err.Error(), map[string]int{
			"required": wordCount.Required,
			"actual":   wordCount.Actual,
		})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &tokenExchange):
		logger.Warn("token exchange failed", zap.String("shop", tokenExchange.Shop), zap.Error(err))
		writeErrorDetails(w, http.StatusUnauthorized, err.Error(), map[string]string{
			"reason": "token_exchange_failed",
		})
	case errors.As(err, &shopInactive):
		logger.Warn("inactive shop", zap.String("shop", shopInactive.Domain))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &quotaExceeded):
		logger.Info("quota exceeded",
			zap.Int("used", quotaExceeded.Used),
			zap.Int("limit", quotaExceeded.Limit),
		)
		writeErrorDetails(w, http.StatusTooManyRequests, err.Error(), map[string]int{
			"used":  quotaExceeded.Used,
			"limit": quotaExceeded.Limit,
		})
	case errors.As(err, &contentPolicy):
		logger.Warn("content policy rejection", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &duplicate):
		logger.Debug("duplicate resource", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "upstream service error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
