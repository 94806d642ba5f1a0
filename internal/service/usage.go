package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/port"
)

var usageTracer = otel.Tracer("service/usage")

// UsageService enforces the per-plan monthly quota and appends usage
// records. The ledger is append-only; quota state is derived by counting
// records in the current calendar month.
type UsageService struct {
	store   port.UsageStore
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUsageService creates the quota/usage service.
func NewUsageService(store port.UsageStore, metrics *observability.Metrics, logger *zap.Logger) *UsageService {
	return &UsageService{
		store:   store,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckQuota reports whether the shop may perform one more generation
// this month. A failed ledger read fails open: generation availability
// is worth more than strict quota enforcement.
func (u *UsageService) CheckQuota(ctx context.Context, shop *domain.Shop) (*domain.QuotaStatus, error) {
	ctx, span := usageTracer.Start(ctx, "UsageService.CheckQuota")
	defer span.End()

	limit := domain.PlanLimit(shop.Plan)
	from, to := domain.MonthWindow(u.now().UTC())

	used, err := u.store.CountUsage(ctx, shop.ID, from, to)
	if err != nil {
		u.logger.Warn("usage: quota read failed, allowing request",
			zap.String("shop", shop.Domain),
			zap.Error(err),
		)
		return &domain.QuotaStatus{Allowed: true, Used: 0, Limit: limit}, nil
	}

	status := &domain.QuotaStatus{
		Allowed: used < limit,
		Used:    used,
		Limit:   limit,
	}
	if !status.Allowed {
		u.metrics.IncrQuotaDenial()
	}
	return status, nil
}

// RecordUsage appends one ledger entry. Best effort: a write failure is
// logged and never surfaces to the caller, because the generation it
// accounts for already succeeded.
func (u *UsageService) RecordUsage(ctx context.Context, shopID, kind, provider, model string, costCents int) {
	ctx, span := usageTracer.Start(ctx, "UsageService.RecordUsage")
	defer span.End()

	rec := &domain.UsageRecord{
		ShopID:    shopID,
		Kind:      kind,
		Provider:  provider,
		Model:     model,
		CostCents: costCents,
		CreatedAt: u.now().UTC(),
	}
	if err := u.store.InsertUsage(ctx, rec); err != nil {
		u.logger.Warn("usage: record write failed",
			zap.String("shop_id", shopID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return
	}
	u.metrics.AddUsageCost(costCents)
}
