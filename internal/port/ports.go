// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/thundertext/thunder-api/internal/domain"
)

// ShopStore resolves and mutates merchant tenant records.
// Implemented by the Supabase adapter.
type ShopStore interface {
	GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	GetShopByID(ctx context.Context, shopID string) (*domain.Shop, error)

	// UpsertShop creates the shop on first install or reactivates it on
	// reinstall. Returns the stored record.
	UpsertShop(ctx context.Context, shopDomain, plan string) (*domain.Shop, error)

	// DeactivateShop flips is_active off. Shops are never hard-deleted.
	DeactivateShop(ctx context.Context, shopDomain string) error
}

// InterviewStore persists the per-shop business profile and its answers.
type InterviewStore interface {
	GetProfileByShop(ctx context.Context, shopID string) (*domain.BusinessProfile, error)
	CreateProfile(ctx context.Context, shopID, mode string) (*domain.BusinessProfile, error)
	UpdateProfile(ctx context.Context, profileID string, updates map[string]any) error

	ListAnswers(ctx context.Context, profileID string) ([]domain.InterviewAnswer, error)
	InsertAnswer(ctx context.Context, answer *domain.InterviewAnswer) error
	DeleteAnswers(ctx context.Context, profileID string) error
}

// UsageStore records and aggregates billable actions.
type UsageStore interface {
	CountUsage(ctx context.Context, shopID string, from, to time.Time) (int, error)
	InsertUsage(ctx context.Context, record *domain.UsageRecord) error
}

// SampleStore persists writing samples.
type SampleStore interface {
	ListSamples(ctx context.Context, shopID string) ([]domain.WritingSample, error)
	InsertSample(ctx context.Context, sample *domain.WritingSample) (*domain.WritingSample, error)
	DeleteSample(ctx context.Context, shopID, sampleID string) error
}

// TextGenerator is the external text-generation provider.
type TextGenerator interface {
	Generate(ctx context.Context, req *domain.TextGenRequest) (*domain.TextGenResult, error)
}

// ImageGenerator is the external image-generation provider.
type ImageGenerator interface {
	Edit(ctx context.Context, req *domain.ImageEditRequest) (*domain.ImageEditResult, error)
}

// TokenExchanger swaps an embedded session token for an Admin API
// credential at the host's OAuth token-exchange endpoint.
type TokenExchanger interface {
	Exchange(ctx context.Context, shopDomain, sessionToken string) (*domain.SessionCredential, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
