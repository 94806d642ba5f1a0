package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/port"
)

var interviewTracer = otel.Tracer("service/interview")

// InterviewService drives the brand-voice interview state machine:
// start, answer, status, reset. Synthesis of the final profile text
// lives in ProfileService.
type InterviewService struct {
	store  port.InterviewStore
	logger *zap.Logger
	now    func() time.Time
}

// NewInterviewService creates the interview service.
func NewInterviewService(store port.InterviewStore, logger *zap.Logger) *InterviewService {
	return &InterviewService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins a new interview, or restarts the existing one. A restart
// wipes stored answers and the synthesized profile text.
func (s *InterviewService) Start(ctx context.Context, shop *domain.Shop, mode string) (*domain.InterviewProgress, error) {
	ctx, span := interviewTracer.Start(ctx, "InterviewService.Start")
	defer span.End()
	span.SetAttributes(attribute.String("interview.mode", mode))

	if mode != domain.ModeQuickStart && mode != domain.ModeFull {
		return nil, &domain.ErrValidation{Field: "mode", Message: "mode must be quick_start or full"}
	}

	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	switch {
	case isNotFound(err):
		profile, err = s.store.CreateProfile(ctx, shop.ID, mode)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		// Restart: clear answers and any synthesized text, keep the row.
		if err := s.store.DeleteAnswers(ctx, profile.ID); err != nil {
			return nil, err
		}
		updates := map[string]any{
			"interview_mode":   mode,
			"interview_status": domain.StatusInProgress,
			"profile_text":     "",
		}
		if err := s.store.UpdateProfile(ctx, profile.ID, updates); err != nil {
			return nil, err
		}
		profile.Mode = mode
		profile.Status = domain.StatusInProgress
		profile.ProfileText = ""
		profile.Answers = nil
	}

	progress := buildProgress(profile.Mode, profile.Status, nil)
	return &progress, nil
}

// SubmitAnswer validates and stores one answer, then reports progress.
// Validation failures leave the stored state untouched.
func (s *InterviewService) SubmitAnswer(ctx context.Context, shop *domain.Shop, req *domain.SubmitAnswerRequest) (*domain.InterviewProgress, error) {
	ctx, span := interviewTracer.Start(ctx, "InterviewService.SubmitAnswer")
	defer span.End()
	span.SetAttributes(attribute.String("interview.prompt_key", req.PromptKey))

	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.ErrConflict{Message: "interview has not been started"}
		}
		return nil, err
	}

	prompt := domain.PromptByKey(req.PromptKey)
	if prompt == nil {
		return nil, &domain.ErrValidation{Field: "prompt_key", Message: "unknown prompt key"}
	}
	if profile.Mode == domain.ModeQuickStart && !prompt.QuickStart {
		return nil, &domain.ErrValidation{Field: "prompt_key", Message: "prompt is not part of the quick_start track"}
	}

	// The compound prompt counts its URLs as answer material.
	text := req.ResponseText
	if prompt.Compound {
		text = strings.TrimSpace(strings.Join([]string{req.WebsiteURL, req.SocialURL, req.ResponseText}, " "))
	}
	words := domain.WordCount(text)
	if words < prompt.MinWords {
		return nil, &domain.ErrWordCount{
			PromptKey: prompt.Key,
			Required:  prompt.MinWords,
			Actual:    words,
		}
	}

	answers, err := s.store.ListAnswers(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if a.PromptKey == req.PromptKey {
			return nil, &domain.ErrDuplicate{Key: req.PromptKey}
		}
	}

	answer := &domain.InterviewAnswer{
		ProfileID:      profile.ID,
		PromptKey:      prompt.Key,
		QuestionNumber: req.QuestionNumber,
		ResponseText:   text,
		WordCount:      words,
		AnsweredAt:     s.now().UTC(),
	}
	if err := s.store.InsertAnswer(ctx, answer); err != nil {
		return nil, err
	}
	answers = append(answers, *answer)

	profile.Answers = answers
	progress := buildProgress(profile.Mode, profile.Status, answers)
	return &progress, nil
}

// Status returns the full interview/profile state for the shop. A shop
// that never started gets a not_started progress shell.
func (s *InterviewService) Status(ctx context.Context, shop *domain.Shop) (*domain.ProfileStatusResponse, error) {
	ctx, span := interviewTracer.Start(ctx, "InterviewService.Status")
	defer span.End()

	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	if err != nil {
		if isNotFound(err) {
			return &domain.ProfileStatusResponse{
				Progress: buildProgress("", domain.StatusNotStarted, nil),
			}, nil
		}
		return nil, err
	}

	answers, err := s.store.ListAnswers(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	resp := &domain.ProfileStatusResponse{
		Progress:    buildProgress(profile.Mode, profile.Status, answers),
		Answers:     answers,
		ProfileText: profile.ProfileText,
	}
	if profile.HasProfileText() {
		t := profile.UpdatedAt
		resp.GeneratedAt = &t
	}
	return resp, nil
}

// Reset wipes the interview back to not_started: answers gone, profile
// text gone, mode cleared.
func (s *InterviewService) Reset(ctx context.Context, shop *domain.Shop) error {
	ctx, span := interviewTracer.Start(ctx, "InterviewService.Reset")
	defer span.End()

	profile, err := s.store.GetProfileByShop(ctx, shop.ID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	if err := s.store.DeleteAnswers(ctx, profile.ID); err != nil {
		return err
	}
	updates := map[string]any{
		"interview_mode":   "",
		"interview_status": domain.StatusNotStarted,
		"profile_text":     "",
	}
	if err := s.store.UpdateProfile(ctx, profile.ID, updates); err != nil {
		return err
	}
	s.logger.Info("interview: reset", zap.String("shop", shop.Domain))
	return nil
}

// buildProgress derives the progress view from mode, status and the
// stored answers. The next prompt is the first unanswered prompt in
// catalog order for the active mode.
func buildProgress(mode, status string, answers []domain.InterviewAnswer) domain.InterviewProgress {
	if status == domain.StatusNotStarted || mode == "" {
		return domain.InterviewProgress{Status: domain.StatusNotStarted}
	}

	prompts := domain.PromptsForMode(mode)
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.PromptKey] = true
	}

	count := 0
	var next *domain.InterviewPrompt
	for i := range prompts {
		if answered[prompts[i].Key] {
			count++
		} else if next == nil {
			next = &prompts[i]
		}
	}

	total := len(prompts)
	pct := float64(count) / float64(total) * 100
	return domain.InterviewProgress{
		Mode:               mode,
		Status:             status,
		AnsweredCount:      count,
		TotalPrompts:       total,
		PercentageComplete: pct,
		InterviewComplete:  count == total,
		NextPrompt:         next,
	}
}
