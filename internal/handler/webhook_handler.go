package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Host webhooks — POST /v1/webhooks/app-uninstalled
// ============================================================

// appUninstalledHandler verifies the webhook HMAC and deactivates the
// shop. The host retries failed deliveries, so only signature failures
// are rejected; downstream errors still return 200 after logging.
func appUninstalledHandler(svc *service.SessionService, apiSecret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/webhooks/app-uninstalled")
		defer span.End()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}

		if !verifyWebhookHMAC(body, r.Header.Get("X-Shopify-Hmac-Sha256"), apiSecret) {
			logger.Warn("webhook: signature verification failed",
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}

		shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
		if shopDomain == "" {
			writeError(w, http.StatusBadRequest, "missing shop domain header")
			return
		}

		if err := svc.Uninstall(ctx, shopDomain); err != nil {
			// Acknowledge anyway; the shop stays resolvable and a retry
			// or the next install will reconcile state.
			logger.Error("webhook: uninstall processing failed",
				zap.String("shop", shopDomain),
				zap.Error(err),
			)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// verifyWebhookHMAC checks the base64 SHA-256 HMAC the host signs
// webhook payloads with.
func verifyWebhookHMAC(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
