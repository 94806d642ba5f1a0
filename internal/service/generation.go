package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
	"github.com/thundertext/thunder-api/internal/port"
)

var genTracer = otel.Tracer("service/generation")

const enhanceSystemPrompt = `You are an e-commerce copywriter. Rewrite the product description ` +
	`so it converts better while staying truthful to the original facts. Match the brand voice ` +
	`described in the business profile when one is provided. Plain prose, no markdown.`

// GenerationService fronts the AI providers for merchant-facing content
// generation. Every successful generation consumes one quota unit and is
// written to the usage ledger.
type GenerationService struct {
	images   port.ImageGenerator
	textGen  port.TextGenerator
	profiles *ProfileService
	usage    *UsageService
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewGenerationService creates the content-generation service.
func NewGenerationService(
	images port.ImageGenerator,
	textGen port.TextGenerator,
	profiles *ProfileService,
	usage *UsageService,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		images:   images,
		textGen:  textGen,
		profiles: profiles,
		usage:    usage,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// IterateImage applies merchant feedback to a previously generated image.
func (g *GenerationService) IterateImage(ctx context.Context, shop *domain.Shop, req *domain.IterateImageRequest) (*domain.IterateImageResponse, error) {
	ctx, span := genTracer.Start(ctx, "GenerationService.IterateImage")
	defer span.End()

	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return nil, &domain.ErrValidation{Field: "feedback", Message: "feedback is required"}
	}
	if len(req.Feedback) > domain.MaxFeedbackLength {
		return nil, &domain.ErrValidation{
			Field:   "feedback",
			Message: fmt.Sprintf("feedback exceeds %d characters", domain.MaxFeedbackLength),
		}
	}
	if strings.TrimSpace(req.PreviousImageURL) == "" {
		return nil, &domain.ErrValidation{Field: "previous_image_url", Message: "previous_image_url is required"}
	}

	quota, err := g.usage.CheckQuota(ctx, shop)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, &domain.ErrQuotaExceeded{Used: quota.Used, Limit: quota.Limit}
	}

	if err := g.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.bulkhead.Release()

	result, err := g.images.Edit(ctx, &domain.ImageEditRequest{
		Instruction:    buildIterationInstruction(feedback),
		ReferenceURL:   req.PreviousImageURL,
		AspectRatio:    req.AspectRatio,
		Quality:        req.Quality,
		PreferredModel: req.Provider,
	})
	if err != nil {
		g.metrics.IncrGeneration("image_iteration", "error")
		return nil, err
	}
	g.metrics.IncrGeneration("image_iteration", "success")

	g.usage.RecordUsage(ctx, shop.ID, "image_iteration", result.Provider, result.Model, result.CostCents)

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("generation.conversation_id", conversationID))

	return &domain.IterateImageResponse{
		ConversationID: conversationID,
		ImageURL:       result.ImageURL,
		CostCents:      result.CostCents,
		Provider:       result.Provider,
		Model:          result.Model,
		CreatedAt:      domain.GenerationTimestamp(g.now()),
	}, nil
}

// EnhanceDescription rewrites a product description, grounded on the
// shop's synthesized brand profile when one exists.
func (g *GenerationService) EnhanceDescription(ctx context.Context, shop *domain.Shop, req *domain.EnhanceDescriptionRequest) (*domain.EnhanceDescriptionResponse, error) {
	ctx, span := genTracer.Start(ctx, "GenerationService.EnhanceDescription")
	defer span.End()

	if strings.TrimSpace(req.ProductTitle) == "" {
		return nil, &domain.ErrValidation{Field: "product_title", Message: "product_title is required"}
	}
	if strings.TrimSpace(req.CurrentDescription) == "" {
		return nil, &domain.ErrValidation{Field: "current_description", Message: "current_description is required"}
	}

	quota, err := g.usage.CheckQuota(ctx, shop)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, &domain.ErrQuotaExceeded{Used: quota.Used, Limit: quota.Limit}
	}

	if err := g.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.bulkhead.Release()

	result, err := g.textGen.Generate(ctx, &domain.TextGenRequest{
		System: enhanceSystemPrompt,
		User:   buildEnhanceInput(req, g.profiles.ProfileText(ctx, shop)),
	})
	if err != nil {
		g.metrics.IncrGeneration("enhance_description", "error")
		return nil, err
	}
	g.metrics.IncrGeneration("enhance_description", "success")
	g.metrics.RecordTokens(result.TokensUsed)

	g.usage.RecordUsage(ctx, shop.ID, "enhance_description", "openai", result.Model, 0)

	return &domain.EnhanceDescriptionResponse{
		Description: result.Text,
		Model:       result.Model,
		TokensUsed:  result.TokensUsed,
	}, nil
}

func buildIterationInstruction(feedback string) string {
	return fmt.Sprintf(
		"Apply the following feedback to the reference image while keeping the product itself unchanged: %s",
		feedback,
	)
}

func buildEnhanceInput(req *domain.EnhanceDescriptionRequest, profileText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product title: %s\n\nCurrent description:\n%s\n", req.ProductTitle, req.CurrentDescription)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "\nWork these keywords in naturally: %s\n", strings.Join(req.Keywords, ", "))
	}
	if profileText != "" {
		fmt.Fprintf(&b, "\nBusiness profile (brand voice reference):\n%s\n", profileText)
	}
	return b.String()
}
