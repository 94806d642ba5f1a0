package handler

import (
	"net/http"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Session bootstrap — GET /v1/session/bootstrap?shop=
// ============================================================

// bootstrapHandler serves the first embedded page load, before the UI
// has a session token. It only resolves a known shop; it never installs.
func bootstrapHandler(svc *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/session/bootstrap")
		defer span.End()

		shop, err := svc.Bootstrap(ctx, r.URL.Query().Get("shop"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SessionBootstrapResponse{
			ShopID:   shop.ID,
			Domain:   shop.Domain,
			Plan:     shop.Plan,
			IsActive: shop.IsActive,
		})
	}
}
