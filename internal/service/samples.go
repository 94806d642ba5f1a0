package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/port"
)

var sampleTracer = otel.Tracer("service/samples")

// SampleService manages the per-shop writing samples used as brand-voice
// reference material.
type SampleService struct {
	store  port.SampleStore
	logger *zap.Logger
}

// NewSampleService creates the writing-sample service.
func NewSampleService(store port.SampleStore, logger *zap.Logger) *SampleService {
	return &SampleService{store: store, logger: logger}
}

// List returns the shop's samples, newest first.
func (s *SampleService) List(ctx context.Context, shop *domain.Shop) ([]domain.WritingSample, error) {
	ctx, span := sampleTracer.Start(ctx, "SampleService.List")
	defer span.End()
	return s.store.ListSamples(ctx, shop.ID)
}

// Create stores a new sample, enforcing the per-shop cap.
func (s *SampleService) Create(ctx context.Context, shop *domain.Shop, req *domain.CreateWritingSampleRequest) (*domain.WritingSample, error) {
	ctx, span := sampleTracer.Start(ctx, "SampleService.Create")
	defer span.End()

	if strings.TrimSpace(req.FileName) == "" {
		return nil, &domain.ErrValidation{Field: "file_name", Message: "file_name is required"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, &domain.ErrValidation{Field: "content", Message: "content is required"}
	}

	existing, err := s.store.ListSamples(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= domain.MaxWritingSamples {
		return nil, &domain.ErrConflict{
			Message: fmt.Sprintf("writing sample limit of %d reached; delete one first", domain.MaxWritingSamples),
		}
	}

	sample := &domain.WritingSample{
		ShopID:    shop.ID,
		FileName:  req.FileName,
		FileType:  req.FileType,
		SizeBytes: len(req.Content),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.store.InsertSample(ctx, sample)
	if err != nil {
		return nil, err
	}
	s.logger.Info("samples: created",
		zap.String("shop", shop.Domain),
		zap.String("file_name", created.FileName),
	)
	return created, nil
}

// Delete removes one sample owned by the shop.
func (s *SampleService) Delete(ctx context.Context, shop *domain.Shop, sampleID string) error {
	ctx, span := sampleTracer.Start(ctx, "SampleService.Delete")
	defer span.End()

	if sampleID == "" {
		return &domain.ErrValidation{Field: "id", Message: "sample id is required"}
	}
	return s.store.DeleteSample(ctx, shop.ID, sampleID)
}
