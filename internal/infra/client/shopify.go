// Package client contains HTTP adapters for external collaborators:
// the embedded host's OAuth token exchange and the AI providers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thundertext/thunder-api/internal/domain"
)

var tracer = otel.Tracer("client")

// Grant constants for the Shopify OAuth token-exchange flow.
const (
	grantTypeTokenExchange  = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenTypeIDToken = "urn:ietf:params:oauth:token-type:id_token"
	requestedTokenOnline    = "urn:shopify:params:oauth:token-type:online-access-token"
)

// ShopifyClient performs the session-token → Admin API token exchange.
type ShopifyClient struct {
	httpClient *http.Client
	apiKey     string
	apiSecret  string

	// credentialTTL bounds how long an exchanged token is trusted before
	// the refresher must replace it.
	credentialTTL time.Duration
}

// NewShopifyClient creates the token-exchange client.
func NewShopifyClient(httpClient *http.Client, apiKey, apiSecret string, credentialTTL time.Duration) *ShopifyClient {
	return &ShopifyClient{
		httpClient:    httpClient,
		apiKey:        apiKey,
		apiSecret:     apiSecret,
		credentialTTL: credentialTTL,
	}
}

type tokenExchangeRequest struct {
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	GrantType          string `json:"grant_type"`
	SubjectToken       string `json:"subject_token"`
	SubjectTokenType   string `json:"subject_token_type"`
	RequestedTokenType string `json:"requested_token_type"`
}

type tokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	ExpiresIn   int    `json:"expires_in"`
}

// Exchange swaps a signed session token for a short-lived Admin API
// credential at https://{shop}/admin/oauth/access_token.
func (c *ShopifyClient) Exchange(ctx context.Context, shopDomain, sessionToken string) (*domain.SessionCredential, error) {
	ctx, span := tracer.Start(ctx, "ShopifyClient.Exchange")
	defer span.End()
	span.SetAttributes(attribute.String("shop.domain", shopDomain))

	payload := tokenExchangeRequest{
		ClientID:           c.apiKey,
		ClientSecret:       c.apiSecret,
		GrantType:          grantTypeTokenExchange,
		SubjectToken:       sessionToken,
		SubjectTokenType:   subjectTokenTypeIDToken,
		RequestedTokenType: requestedTokenOnline,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrTokenExchange{Shop: shopDomain, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ErrTokenExchange{
			Shop: shopDomain,
			Err:  fmt.Errorf("exchange endpoint returned status %d", resp.StatusCode),
		}
	}

	var exchanged tokenExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&exchanged); err != nil {
		return nil, &domain.ErrTokenExchange{Shop: shopDomain, Err: err}
	}
	if exchanged.AccessToken == "" {
		return nil, &domain.ErrTokenExchange{Shop: shopDomain, Err: fmt.Errorf("empty access token in response")}
	}

	ttl := c.credentialTTL
	if exchanged.ExpiresIn > 0 {
		ttl = time.Duration(exchanged.ExpiresIn) * time.Second
	}

	return &domain.SessionCredential{
		AccessToken: exchanged.AccessToken,
		Scope:       exchanged.Scope,
		ExpiresAt:   time.Now().Add(ttl),
	}, nil
}
