// Package service — SessionService is the single auth gateway.
// Every request resolves to a verified shop through one of three inputs:
// a signed embedded session token, a bearer shop domain from an
// already-authenticated browser session, or the ?shop= query parameter
// on first embedded load.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/port"
)

var sessionTracer = otel.Tracer("service/session")

// SessionService verifies session tokens, exchanges them for backend
// credentials and resolves the tenant record.
type SessionService struct {
	shops     port.ShopStore
	exchanger port.TokenExchanger
	keeper    *CredentialKeeper
	shopCache port.Cache[*domain.Shop]
	apiKey    string
	apiSecret []byte
	appURL    string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSessionService creates the auth gateway.
func NewSessionService(
	shops port.ShopStore,
	exchanger port.TokenExchanger,
	keeper *CredentialKeeper,
	shopCache port.Cache[*domain.Shop],
	apiKey, apiSecret, appURL string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		shops:     shops,
		exchanger: exchanger,
		keeper:    keeper,
		shopCache: shopCache,
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		appURL:    appURL,
		metrics:   metrics,
		logger:    logger,
	}
}

// sessionTokenClaims are the claims Shopify puts in embedded session
// tokens. dest carries "https://{shop-domain}".
type sessionTokenClaims struct {
	Dest string `json:"dest"`
	Sid  string `json:"sid"`
	jwt.RegisteredClaims
}

// ResolveBearer resolves the Authorization bearer value to a verified,
// active shop. The value is either a shop domain (browser session) or an
// embedded session token.
func (s *SessionService) ResolveBearer(ctx context.Context, bearer string) (*domain.Shop, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.ResolveBearer")
	defer span.End()

	if bearer == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing bearer credential"}
	}

	// A bare shop domain means the browser session already authenticated.
	if strings.HasSuffix(bearer, ".myshopify.com") {
		return s.resolveActiveShop(ctx, bearer)
	}

	// Otherwise treat the value as an embedded session token.
	shopDomain, err := s.VerifySessionToken(bearer)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("shop.domain", shopDomain))

	// Exchange for a backend credential unless the keeper already holds
	// a live one for this embedded session.
	if _, ok := s.keeper.Credential(shopDomain); !ok {
		cred, err := s.exchanger.Exchange(ctx, shopDomain, bearer)
		if err != nil {
			s.metrics.IncrExternalError("shopify")
			s.logger.Warn("session: token exchange failed",
				zap.String("shop", shopDomain),
				zap.Error(err),
			)
			return nil, err
		}
		s.keeper.Track(shopDomain, bearer, cred)

		// First successful exchange for an unknown shop is the install.
		if _, err := s.shops.GetShopByDomain(ctx, shopDomain); isNotFound(err) {
			if _, upErr := s.shops.UpsertShop(ctx, shopDomain, domain.PlanStarter); upErr != nil {
				return nil, upErr
			}
			s.shopCache.Delete(shopDomain)
			s.logger.Info("session: shop installed", zap.String("shop", shopDomain))
		}
	} else {
		s.keeper.Touch(shopDomain, bearer)
	}

	return s.resolveActiveShop(ctx, shopDomain)
}

// Bootstrap resolves the first embedded page load from the ?shop= query
// parameter.
func (s *SessionService) Bootstrap(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Bootstrap")
	defer span.End()

	if shopDomain == "" {
		return nil, &domain.ErrValidation{Field: "shop", Message: "shop parameter is required"}
	}
	return s.resolveActiveShop(ctx, shopDomain)
}

// VerifySessionToken validates the HS256 signature and audience of an
// embedded session token and returns the shop domain from the dest claim.
func (s *SessionService) VerifySessionToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionTokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.apiSecret, nil
	})
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired session token"}
	}

	claims, ok := token.Claims.(*sessionTokenClaims)
	if !ok || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}

	aud, _ := claims.GetAudience()
	if len(aud) == 0 || aud[0] != s.apiKey {
		return "", &domain.ErrUnauthorized{Message: "session token audience mismatch"}
	}

	shopDomain := strings.TrimPrefix(claims.Dest, "https://")
	shopDomain = strings.TrimSuffix(shopDomain, "/")
	if shopDomain == "" {
		return "", &domain.ErrUnauthorized{Message: "session token missing destination shop"}
	}
	return shopDomain, nil
}

// OAuthRedirectURL builds the classic OAuth begin URL the UI should
// redirect to when the token exchange fails.
func (s *SessionService) OAuthRedirectURL(shopDomain string) string {
	return fmt.Sprintf("%s/auth/begin?shop=%s", s.appURL, shopDomain)
}

// Uninstall deactivates the shop and drops its session state.
// Called from the app-uninstalled webhook.
func (s *SessionService) Uninstall(ctx context.Context, shopDomain string) error {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Uninstall")
	defer span.End()

	if err := s.shops.DeactivateShop(ctx, shopDomain); err != nil {
		return err
	}
	s.shopCache.Delete(shopDomain)
	s.keeper.Forget(shopDomain)
	s.logger.Info("session: shop uninstalled", zap.String("shop", shopDomain))
	return nil
}

// resolveActiveShop loads the shop record (cached) and enforces the
// active flag.
func (s *SessionService) resolveActiveShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	if shop, ok := s.shopCache.Get(shopDomain); ok {
		s.metrics.IncrCacheHit("shop")
		if !shop.IsActive {
			return nil, &domain.ErrShopInactive{Domain: shopDomain}
		}
		return shop, nil
	}
	s.metrics.IncrCacheMiss("shop")

	shop, err := s.shops.GetShopByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	s.shopCache.Set(shopDomain, shop)

	if !shop.IsActive {
		return nil, &domain.ErrShopInactive{Domain: shopDomain}
	}
	return shop, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *domain.ErrNotFound
	return errors.As(err, &notFound)
}
