package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thundertext/thunder-api/internal/domain"
)

// ============================================================
// Usage records — append-only billing ledger (implements port.UsageStore)
// ============================================================

// CountUsage counts usage rows for a shop within [from, to].
// Callers treat errors as a fail-open signal, so this does not retry:
// a slow ledger must not delay the generation it gates.
func (c *Client) CountUsage(ctx context.Context, shopID string, from, to time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountUsage")
	defer span.End()
	span.SetAttributes(attribute.String("shop.id", shopID))

	path := fmt.Sprintf(
		"usage_records?shop_id=eq.%s&created_at=gte.%s&created_at=lte.%s&select=id",
		url.QueryEscape(shopID),
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)),
	)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/usage_records", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return 0, nil
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("decode usage_records: %w", err)
	}
	return len(rows), nil
}

// InsertUsage appends one billable-action row. Rows are never mutated
// or deleted.
func (c *Client) InsertUsage(ctx context.Context, record *domain.UsageRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertUsage")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data := map[string]any{
		"id":         record.ID,
		"shop_id":    record.ShopID,
		"kind":       record.Kind,
		"cost_cents": record.CostCents,
		"provider":   record.Provider,
		"model":      record.Model,
		"created_at": record.CreatedAt.UTC().Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "usage_records", data)
	return err
}
