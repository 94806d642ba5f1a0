package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/thundertext/thunder-api/internal/domain"
)

// ============================================================
// Writing samples (implements port.SampleStore)
// ============================================================

// sampleRow maps the writing_samples table columns.
type sampleRow struct {
	ID        string `json:"id"`
	ShopID    string `json:"shop_id"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	SizeBytes int    `json:"size_bytes"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (r *sampleRow) toDomain() domain.WritingSample {
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.WritingSample{
		ID:        r.ID,
		ShopID:    r.ShopID,
		FileName:  r.FileName,
		FileType:  r.FileType,
		SizeBytes: r.SizeBytes,
		Content:   r.Content,
		CreatedAt: createdAt,
	}
}

// ListSamples returns the shop's writing samples, newest first.
func (c *Client) ListSamples(ctx context.Context, shopID string) ([]domain.WritingSample, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSamples")
	defer span.End()

	path := fmt.Sprintf("writing_samples?shop_id=eq.%s&order=created_at.desc", url.QueryEscape(shopID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/writing_samples", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.WritingSample{}, nil
	}

	var rows []sampleRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode writing_samples: %w", err)
	}

	samples := make([]domain.WritingSample, 0, len(rows))
	for i := range rows {
		samples = append(samples, rows[i].toDomain())
	}
	return samples, nil
}

// InsertSample stores one uploaded sample.
func (c *Client) InsertSample(ctx context.Context, sample *domain.WritingSample) (*domain.WritingSample, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertSample")
	defer span.End()

	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}
	data := map[string]any{
		"id":         sample.ID,
		"shop_id":    sample.ShopID,
		"file_name":  sample.FileName,
		"file_type":  sample.FileType,
		"size_bytes": sample.SizeBytes,
		"content":    sample.Content,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "writing_samples", data)
	if err != nil {
		return nil, err
	}

	var rows []sampleRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode writing_samples: %w", err)
	}
	if len(rows) == 0 {
		return sample, nil
	}
	stored := rows[0].toDomain()
	return &stored, nil
}

// DeleteSample removes one sample, scoped to the owning shop.
func (c *Client) DeleteSample(ctx context.Context, shopID, sampleID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSample")
	defer span.End()

	path := fmt.Sprintf("writing_samples?id=eq.%s&shop_id=eq.%s", url.QueryEscape(sampleID), url.QueryEscape(shopID))
	return c.doDelete(ctx, path)
}
