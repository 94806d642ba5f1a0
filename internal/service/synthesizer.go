package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/port"
)

var profileTracer = otel.Tracer("service/profile")

const profileSystemPrompt = `You are a brand strategist. From the merchant's interview answers ` +
	`(and writing samples, when provided), write a cohesive business profile in flowing prose. ` +
	`Cover: what the business sells and to whom, brand personality and tone of voice, ` +
	`differentiators, customer pain points, and content goals. Write in second person ` +
	`("your brand..."), 300-500 words, no headings or bullet lists.`

// ProfileService synthesizes the business-profile narrative from the
// completed interview.
type ProfileService struct {
	store   port.InterviewStore
	samples port.SampleStore
	textGen port.TextGenerator
	usage   *UsageService
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewProfileService creates the synthesizer.
func NewProfileService(
	store port.InterviewStore,
	samples port.SampleStore,
	textGen port.TextGenerator,
	usage *UsageService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		store:   store,
		samples: samples,
		textGen: textGen,
		usage:   usage,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate synthesizes the profile text for a shop whose interview is
// complete but not yet synthesized. A profile that already has text must
// go through Regenerate instead.
func (s *ProfileService) Generate(ctx context.Context, shop *domain.Shop) (*domain.ProfileStatusResponse, error) {
	return s.synthesize(ctx, shop, false)
}

// Regenerate re-runs synthesis over the stored answers, replacing the
// existing profile text. The interview must still be complete.
func (s *ProfileService) Regenerate(ctx context.Context, shop *domain.Shop) (*domain.ProfileStatusResponse, error) {
	return s.synthesize(ctx, shop, true)
}

func (s *ProfileService) synthesize(ctx context.Context, shop *domain.Shop, replace bool) (*domain.ProfileStatusResponse, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.synthesize")
	defer span.End()

	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.ErrConflict{Message: "interview has not been started"}
		}
		return nil, err
	}
	if !replace && profile.HasProfileText() {
		return nil, &domain.ErrConflict{Message: "profile already generated; use regenerate"}
	}

	// Answers and samples are independent reads.
	var (
		answers []domain.InterviewAnswer
		samples []domain.WritingSample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		answers, err = s.store.ListAnswers(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = s.samples.ListSamples(gctx, shop.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := buildProgress(profile.Mode, profile.Status, answers)
	if !progress.InterviewComplete {
		return nil, &domain.ErrConflict{
			Message: fmt.Sprintf("interview is %d%% complete; all prompts must be answered before generating",
				int(progress.PercentageComplete)),
		}
	}

	result, err := s.textGen.Generate(ctx, &domain.TextGenRequest{
		System: profileSystemPrompt,
		User:   buildSynthesisInput(answers, samples),
	})
	if err != nil {
		s.metrics.IncrGeneration("profile", "error")
		return nil, err
	}
	s.metrics.IncrGeneration("profile", "success")
	s.metrics.RecordTokens(result.TokensUsed)

	// Persist only after the provider succeeded. A failed generation
	// leaves the previous state fully intact.
	updates := map[string]any{
		"profile_text":     result.Text,
		"interview_status": domain.StatusCompleted,
	}
	if err := s.store.UpdateProfile(ctx, profile.ID, updates); err != nil {
		return nil, err
	}

	s.usage.RecordUsage(ctx, shop.ID, "profile_synthesis", "openai", result.Model, 0)
	s.logger.Info("profile: synthesized",
		zap.String("shop", shop.Domain),
		zap.Int("tokens", result.TokensUsed),
	)

	generatedAt := s.now().UTC()
	return &domain.ProfileStatusResponse{
		Progress: domain.InterviewProgress{
			Mode:               profile.Mode,
			Status:             domain.StatusCompleted,
			AnsweredCount:      progress.AnsweredCount,
			TotalPrompts:       progress.TotalPrompts,
			PercentageComplete: 100,
			InterviewComplete:  true,
		},
		Answers:     answers,
		ProfileText: result.Text,
		GeneratedAt: &generatedAt,
	}, nil
}

// ProfileText returns the synthesized narrative for grounding other
// generations. Empty when no profile exists yet.
func (s *ProfileService) ProfileText(ctx context.Context, shop *domain.Shop) string {
	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	if err != nil || !profile.HasProfileText() {
		return ""
	}
	return profile.ProfileText
}

// buildSynthesisInput renders interview answers and writing samples into
// the user prompt for the synthesizer.
func buildSynthesisInput(answers []domain.InterviewAnswer, samples []domain.WritingSample) string {
	var b strings.Builder
	b.WriteString("Interview answers:\n\n")
	for _, a := range answers {
		prompt := domain.PromptByKey(a.PromptKey)
		if prompt != nil {
			fmt.Fprintf(&b, "Q: %s\n", prompt.Question)
		}
		fmt.Fprintf(&b, "A: %s\n\n", a.ResponseText)
	}
	if len(samples) > 0 {
		b.WriteString("Writing samples for voice reference:\n\n")
		for _, smp := range samples {
			fmt.Fprintf(&b, "--- %s ---\n%s\n\n", smp.FileName, smp.Content)
		}
	}
	return b.String()
}
