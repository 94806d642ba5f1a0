package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
)

// ============================================================
// Shops — tenant records (implements port.ShopStore)
// ============================================================

// shopRow maps the shops table columns to our domain.
type shopRow struct {
	ID          string `json:"id"`
	Domain      string `json:"shop_domain"`
	IsActive    bool   `json:"is_active"`
	Plan        string `json:"plan"`
	InstalledAt string `json:"installed_at"`
}

func (r *shopRow) toDomain() *domain.Shop {
	installedAt, _ := time.Parse(time.RFC3339, r.InstalledAt)
	return &domain.Shop{
		ID:          r.ID,
		Domain:      r.Domain,
		IsActive:    r.IsActive,
		Plan:        r.Plan,
		InstalledAt: installedAt,
	}
}

// GetShopByDomain resolves a shop by its storefront domain.
// Reads go through the circuit breaker + retry because every request
// depends on them.
func (c *Client) GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetShopByDomain")
	defer span.End()
	span.SetAttributes(attribute.String("shop.domain", shopDomain))

	var shop *domain.Shop

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("shops?shop_domain=eq.%s&limit=1", url.QueryEscape(shopDomain))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "shop", ID: shopDomain}
			}

			var rows []shopRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode shops: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "shop", ID: shopDomain}
			}

			shop = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/shops", Err: err}
	}

	return shop, nil
}

// GetShopByID resolves a shop by primary key.
func (c *Client) GetShopByID(ctx context.Context, shopID string) (*domain.Shop, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetShopByID")
	defer span.End()

	path := fmt.Sprintf("shops?id=eq.%s&limit=1", url.QueryEscape(shopID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/shops", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "shop", ID: shopID}
	}

	var rows []shopRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode shops: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "shop", ID: shopID}
	}
	return rows[0].toDomain(), nil
}

// UpsertShop creates the shop on first install, or reactivates an existing
// row on reinstall. Plan is only set on first insert; reinstalls keep
// whatever plan the shop already had.
func (c *Client) UpsertShop(ctx context.Context, shopDomain, plan string) (*domain.Shop, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertShop")
	defer span.End()
	span.SetAttributes(attribute.String("shop.domain", shopDomain))

	existing, err := c.GetShopByDomain(ctx, shopDomain)
	if err == nil {
		if !existing.IsActive {
			path := fmt.Sprintf("shops?id=eq.%s", url.QueryEscape(existing.ID))
			if err := c.doPatch(ctx, path, map[string]any{"is_active": true}); err != nil {
				return nil, err
			}
			existing.IsActive = true
		}
		return existing, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	data := map[string]any{
		"id":           uuid.New().String(),
		"shop_domain":  shopDomain,
		"is_active":    true,
		"plan":         plan,
		"installed_at": time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "shops", data)
	if err != nil {
		return nil, err
	}

	var rows []shopRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode shops: %w", err)
	}
	if len(rows) == 0 {
		return &domain.Shop{
			ID:       data["id"].(string),
			Domain:   shopDomain,
			IsActive: true,
			Plan:     plan,
		}, nil
	}
	return rows[0].toDomain(), nil
}

// DeactivateShop flips is_active off (app uninstalled).
func (c *Client) DeactivateShop(ctx context.Context, shopDomain string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeactivateShop")
	defer span.End()

	path := fmt.Sprintf("shops?shop_domain=eq.%s", url.QueryEscape(shopDomain))
	return c.doPatch(ctx, path, map[string]any{"is_active": false})
}
