package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockTextGen struct {
	result *domain.TextGenResult
	err    error
	calls  int
	lastIn *domain.TextGenRequest
}

func (m *mockTextGen) Generate(_ context.Context, req *domain.TextGenRequest) (*domain.TextGenResult, error) {
	m.calls++
	m.lastIn = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type memSampleStore struct {
	samples   []domain.WritingSample
	listErr   error
	insertErr error
	deleted   []string
}

func (m *memSampleStore) ListSamples(_ context.Context, _ string) ([]domain.WritingSample, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.WritingSample(nil), m.samples...), nil
}

func (m *memSampleStore) InsertSample(_ context.Context, sample *domain.WritingSample) (*domain.WritingSample, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	s := *sample
	s.ID = "sample-new"
	m.samples = append(m.samples, s)
	return &s, nil
}

func (m *memSampleStore) DeleteSample(_ context.Context, _, sampleID string) error {
	m.deleted = append(m.deleted, sampleID)
	return nil
}

type memUsageStore struct {
	count     int
	countErr  error
	records   []domain.UsageRecord
	insertErr error
}

func (m *memUsageStore) CountUsage(_ context.Context, _ string, _, _ time.Time) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *memUsageStore) InsertUsage(_ context.Context, record *domain.UsageRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.records = append(m.records, *record)
	return nil
}

// completedInterviewStore returns a store holding a fully answered
// quick_start interview.
func completedInterviewStore(profileText string) *memInterviewStore {
	store := &memInterviewStore{
		profile: &domain.BusinessProfile{
			ID: "profile-1", ShopID: "shop-1",
			Mode: domain.ModeQuickStart, Status: domain.StatusInProgress,
			ProfileText: profileText,
		},
	}
	for i, p := range domain.PromptsForMode(domain.ModeQuickStart) {
		store.answers = append(store.answers, domain.InterviewAnswer{
			ProfileID: "profile-1", PromptKey: p.Key,
			QuestionNumber: i + 1, ResponseText: answer(p.MinWords),
			WordCount: p.MinWords,
		})
	}
	return store
}

func newProfileService(store *memInterviewStore, samples *memSampleStore, textGen *mockTextGen, usage *memUsageStore) *service.ProfileService {
	metrics := observability.NewMetrics()
	usageSvc := service.NewUsageService(usage, metrics, zap.NewNop())
	return service.NewProfileService(store, samples, textGen, usageSvc, metrics, zap.NewNop())
}

// --- Tests ---

func TestProfile_GenerateSuccess(t *testing.T) {
	store := completedInterviewStore("")
	samples := &memSampleStore{samples: []domain.WritingSample{
		{ID: "s1", FileName: "about-us.txt", Content: "We hand-pour every candle."},
	}}
	textGen := &mockTextGen{result: &domain.TextGenResult{Text: "Your brand is...", Model: "gpt-4o-mini", TokensUsed: 800}}
	usage := &memUsageStore{}

	svc := newProfileService(store, samples, textGen, usage)
	result, err := svc.Generate(context.Background(), testShop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.ProfileText != "Your brand is..." {
		t.Errorf("unexpected profile text %q", result.ProfileText)
	}
	if result.Progress.Status != domain.StatusCompleted {
		t.Errorf("expected completed status, got %s", result.Progress.Status)
	}
	if store.profile.ProfileText != "Your brand is..." {
		t.Error("expected profile text persisted")
	}
	if store.profile.Status != domain.StatusCompleted {
		t.Error("expected status persisted as completed")
	}
	if len(usage.records) != 1 || usage.records[0].Kind != "profile_synthesis" {
		t.Errorf("expected one profile_synthesis usage record, got %+v", usage.records)
	}
	if !strings.Contains(textGen.lastIn.User, "hand-pour") {
		t.Error("expected writing sample content in synthesis input")
	}
}

func TestProfile_GenerateIncompleteInterview(t *testing.T) {
	store := completedInterviewStore("")
	store.answers = store.answers[:3]
	textGen := &mockTextGen{}

	svc := newProfileService(store, &memSampleStore{}, textGen, &memUsageStore{})
	_, err := svc.Generate(context.Background(), testShop())

	var conflict *domain.ErrConflict
	if !asErr(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if textGen.calls != 0 {
		t.Error("provider must not be called for an incomplete interview")
	}
}

func TestProfile_GenerateTwiceConflicts(t *testing.T) {
	store := completedInterviewStore("existing narrative")
	textGen := &mockTextGen{}

	svc := newProfileService(store, &memSampleStore{}, textGen, &memUsageStore{})
	_, err := svc.Generate(context.Background(), testShop())

	var conflict *domain.ErrConflict
	if !asErr(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if textGen.calls != 0 {
		t.Error("provider must not be called when profile text exists")
	}
}

func TestProfile_RegenerateReplacesText(t *testing.T) {
	store := completedInterviewStore("old narrative")
	store.profile.Status = domain.StatusCompleted
	textGen := &mockTextGen{result: &domain.TextGenResult{Text: "fresh narrative", Model: "gpt-4o-mini", TokensUsed: 750}}

	svc := newProfileService(store, &memSampleStore{}, textGen, &memUsageStore{})
	result, err := svc.Regenerate(context.Background(), testShop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ProfileText != "fresh narrative" {
		t.Errorf("expected replaced text, got %q", result.ProfileText)
	}
	if store.profile.ProfileText != "fresh narrative" {
		t.Error("expected replacement persisted")
	}
}

func TestProfile_GenerateProviderFailureKeepsState(t *testing.T) {
	store := completedInterviewStore("")
	textGen := &mockTextGen{err: &domain.ErrExternalService{Service: "openai", Err: errors.New("boom")}}
	usage := &memUsageStore{}

	svc := newProfileService(store, &memSampleStore{}, textGen, usage)
	_, err := svc.Generate(context.Background(), testShop())
	if err == nil {
		t.Fatal("expected provider error")
	}

	if store.profile.ProfileText != "" {
		t.Error("failed generation must not persist profile text")
	}
	if store.profile.Status != domain.StatusInProgress {
		t.Error("failed generation must not change status")
	}
	if len(usage.records) != 0 {
		t.Error("failed generation must not record usage")
	}
}

func TestProfile_GenerateBeforeStart(t *testing.T) {
	svc := newProfileService(&memInterviewStore{}, &memSampleStore{}, &mockTextGen{}, &memUsageStore{})

	_, err := svc.Generate(context.Background(), testShop())
	var conflict *domain.ErrConflict
	if !asErr(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
