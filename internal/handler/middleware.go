package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const shopKey contextKey = "shop"

// ShopAuthMiddleware resolves the Authorization bearer value (embedded
// session token or shop domain) to a verified active shop and injects it
// into the request context.
func ShopAuthMiddleware(sessionSvc *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing credential",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid credential format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			shop, err := sessionSvc.ResolveBearer(r.Context(), parts[1])
			if err != nil {
				// A failed exchange means the embedded app must restart
				// the OAuth flow; tell the UI where to send the merchant.
				var exchangeErr *domain.ErrTokenExchange
				if errors.As(err, &exchangeErr) {
					writeErrorDetails(w, http.StatusUnauthorized, err.Error(), map[string]string{
						"reason":   "token_exchange_failed",
						"auth_url": sessionSvc.OAuthRedirectURL(exchangeErr.Shop),
					})
					return
				}
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), shopKey, shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ShopFromContext extracts the authenticated shop from context.
func ShopFromContext(ctx context.Context) *domain.Shop {
	shop, _ := ctx.Value(shopKey).(*domain.Shop)
	return shop
}
