package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/handler"
	"github.com/thundertext/thunder-api/internal/infra/cache"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
	"github.com/thundertext/thunder-api/internal/service"

	"go.uber.org/zap"
)

const (
	testSecret  = "test-api-secret"
	testShopDom = "acme.myshopify.com"
)

// --- Mocks ---

type stubShopStore struct {
	shop        *domain.Shop
	deactivated int
}

func (s *stubShopStore) GetShopByDomain(_ context.Context, shopDomain string) (*domain.Shop, error) {
	if s.shop != nil && s.shop.Domain == shopDomain {
		copied := *s.shop
		return &copied, nil
	}
	return nil, &domain.ErrNotFound{Resource: "shop", ID: shopDomain}
}

func (s *stubShopStore) GetShopByID(_ context.Context, shopID string) (*domain.Shop, error) {
	if s.shop != nil && s.shop.ID == shopID {
		copied := *s.shop
		return &copied, nil
	}
	return nil, &domain.ErrNotFound{Resource: "shop", ID: shopID}
}

func (s *stubShopStore) UpsertShop(_ context.Context, shopDomain, plan string) (*domain.Shop, error) {
	s.shop = &domain.Shop{ID: "shop-1", Domain: shopDomain, IsActive: true, Plan: plan}
	copied := *s.shop
	return &copied, nil
}

func (s *stubShopStore) DeactivateShop(_ context.Context, _ string) error {
	s.deactivated++
	if s.shop != nil {
		s.shop.IsActive = false
	}
	return nil
}

type stubInterviewStore struct {
	profile *domain.BusinessProfile
	answers []domain.InterviewAnswer
}

func (s *stubInterviewStore) GetProfileByShop(_ context.Context, shopID string) (*domain.BusinessProfile, error) {
	if s.profile == nil {
		return nil, &domain.ErrNotFound{Resource: "business_profile", ID: shopID}
	}
	p := *s.profile
	return &p, nil
}

func (s *stubInterviewStore) CreateProfile(_ context.Context, shopID, mode string) (*domain.BusinessProfile, error) {
	s.profile = &domain.BusinessProfile{ID: "profile-1", ShopID: shopID, Mode: mode, Status: domain.StatusInProgress}
	p := *s.profile
	return &p, nil
}

func (s *stubInterviewStore) UpdateProfile(_ context.Context, _ string, updates map[string]any) error {
	if v, ok := updates["profile_text"].(string); ok {
		s.profile.ProfileText = v
	}
	if v, ok := updates["interview_status"].(string); ok {
		s.profile.Status = v
	}
	return nil
}

func (s *stubInterviewStore) ListAnswers(_ context.Context, _ string) ([]domain.InterviewAnswer, error) {
	return append([]domain.InterviewAnswer(nil), s.answers...), nil
}

func (s *stubInterviewStore) InsertAnswer(_ context.Context, answer *domain.InterviewAnswer) error {
	s.answers = append(s.answers, *answer)
	return nil
}

func (s *stubInterviewStore) DeleteAnswers(_ context.Context, _ string) error {
	s.answers = nil
	return nil
}

type stubUsageStore struct{ count int }

func (s *stubUsageStore) CountUsage(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return s.count, nil
}
func (s *stubUsageStore) InsertUsage(_ context.Context, _ *domain.UsageRecord) error { return nil }

type stubSampleStore struct{ samples []domain.WritingSample }

func (s *stubSampleStore) ListSamples(_ context.Context, _ string) ([]domain.WritingSample, error) {
	return s.samples, nil
}
func (s *stubSampleStore) InsertSample(_ context.Context, sample *domain.WritingSample) (*domain.WritingSample, error) {
	out := *sample
	out.ID = "sample-1"
	s.samples = append(s.samples, out)
	return &out, nil
}
func (s *stubSampleStore) DeleteSample(_ context.Context, _, _ string) error { return nil }

type stubTextGen struct{}

func (stubTextGen) Generate(_ context.Context, _ *domain.TextGenRequest) (*domain.TextGenResult, error) {
	return &domain.TextGenResult{Text: "generated", Model: "gpt-4o-mini", TokensUsed: 100}, nil
}

type stubImageGen struct{}

func (stubImageGen) Edit(_ context.Context, _ *domain.ImageEditRequest) (*domain.ImageEditResult, error) {
	return &domain.ImageEditResult{ImageURL: "https://cdn.example/out.png", Provider: "images", Model: "gpt-image-1"}, nil
}

type stubExchanger struct{}

func (stubExchanger) Exchange(_ context.Context, _, _ string) (*domain.SessionCredential, error) {
	return &domain.SessionCredential{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type testEnv struct {
	router http.Handler
	shops  *stubShopStore
}

func newTestRouter(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	shops := &stubShopStore{shop: &domain.Shop{
		ID: "shop-1", Domain: testShopDom, IsActive: true, Plan: domain.PlanStarter,
	}}
	interview := &stubInterviewStore{}
	samples := &stubSampleStore{}
	usageStore := &stubUsageStore{}

	keeper := service.NewCredentialKeeper(stubExchanger{}, time.Minute, 5*time.Minute, logger)
	sessionSvc := service.NewSessionService(
		shops, stubExchanger{}, keeper, cache.New[*domain.Shop](time.Minute),
		"test-api-key", testSecret, "https://app.example", metrics, logger,
	)
	usageSvc := service.NewUsageService(usageStore, metrics, logger)
	interviewSvc := service.NewInterviewService(interview, logger)
	profileSvc := service.NewProfileService(interview, samples, stubTextGen{}, usageSvc, metrics, logger)
	generationSvc := service.NewGenerationService(stubImageGen{}, stubTextGen{}, profileSvc, usageSvc, resilience.NewBulkhead(2), metrics, logger)
	sampleSvc := service.NewSampleService(samples, logger)

	router := handler.NewRouter(handler.Services{
		Session:    sessionSvc,
		Interview:  interviewSvc,
		Profile:    profileSvc,
		Generation: generationSvc,
		Usage:      usageSvc,
		Samples:    sampleSvc,
	}, testSecret, metrics, logger)

	return &testEnv{router: router, shops: shops}
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/v1/business-profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without bearer, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/business-profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-bearer scheme, got %d", rec2.Code)
	}
}

func TestBootstrap(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/v1/session/bootstrap?shop="+testShopDom, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	envlp := decodeEnvelope(t, rec)
	var data domain.SessionBootstrapResponse
	if err := json.Unmarshal(envlp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Domain != testShopDom || !data.IsActive {
		t.Errorf("unexpected bootstrap payload %+v", data)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/v1/session/bootstrap", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without shop param, got %d", rec.Code)
	}
}

func TestInterviewFlowOverHTTP(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodPost, "/v1/business-profile/start", testShopDom,
		domain.StartInterviewRequest{Mode: domain.ModeQuickStart})
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Short answer gets a 400 with the word-count detail.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/answer", testShopDom,
		domain.SubmitAnswerRequest{PromptKey: "target_customer", ResponseText: "too short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short answer: expected 400, got %d", rec.Code)
	}
	envlp := decodeEnvelope(t, rec)
	var detail struct {
		Required int `json:"required"`
		Actual   int `json:"actual"`
	}
	if err := json.Unmarshal(envlp.Error.Details, &detail); err != nil {
		t.Fatalf("decode word-count details: %v", err)
	}
	if detail.Required != 15 || detail.Actual != 2 {
		t.Errorf("expected required=15 actual=2, got %+v", detail)
	}

	// Valid answer.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/answer", testShopDom,
		domain.SubmitAnswerRequest{
			PromptKey:    "target_customer",
			ResponseText: strings.TrimSpace(strings.Repeat("word ", 15)),
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Same prompt again conflicts.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/answer", testShopDom,
		domain.SubmitAnswerRequest{
			PromptKey:    "target_customer",
			ResponseText: strings.TrimSpace(strings.Repeat("word ", 15)),
		})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}

	// Generate before completion conflicts.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/generate", testShopDom, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("early generate: expected 409, got %d", rec.Code)
	}
}

func TestGenerateAfterFullInterview(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodPost, "/v1/business-profile/start", testShopDom,
		domain.StartInterviewRequest{Mode: domain.ModeQuickStart})
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	for _, p := range domain.PromptsForMode(domain.ModeQuickStart) {
		rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/answer", testShopDom,
			domain.SubmitAnswerRequest{
				PromptKey:    p.Key,
				ResponseText: strings.TrimSpace(strings.Repeat("word ", p.MinWords)),
			})
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %s: got %d (%s)", p.Key, rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/generate", testShopDom, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	envlp := decodeEnvelope(t, rec)
	var status domain.ProfileStatusResponse
	if err := json.Unmarshal(envlp.Data, &status); err != nil {
		t.Fatal(err)
	}
	if status.ProfileText != "generated" {
		t.Errorf("expected synthesized text, got %q", status.ProfileText)
	}

	// Second generate requires the regenerate route.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/generate", testShopDom, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second generate: expected 409, got %d", rec.Code)
	}
	rec = doJSON(t, env.router, http.MethodPost, "/v1/business-profile/regenerate", testShopDom, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("regenerate: expected 200, got %d", rec.Code)
	}
}

func TestIterateImageOverHTTP(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodPost, "/v1/iterate-image", testShopDom,
		domain.IterateImageRequest{
			PreviousImageURL: "https://cdn.example/in.png",
			Feedback:         "brighter lighting",
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Over-long feedback is rejected before any provider call.
	rec = doJSON(t, env.router, http.MethodPost, "/v1/iterate-image", testShopDom,
		domain.IterateImageRequest{
			PreviousImageURL: "https://cdn.example/in.png",
			Feedback:         strings.Repeat("a", domain.MaxFeedbackLength+1),
		})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized feedback, got %d", rec.Code)
	}
}

func TestUsageEndpoint(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodGet, "/v1/usage", testShopDom, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	envlp := decodeEnvelope(t, rec)
	var data struct {
		Plan      string `json:"plan"`
		Used      int    `json:"used"`
		Limit     int    `json:"limit"`
		Remaining int    `json:"remaining"`
	}
	if err := json.Unmarshal(envlp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Plan != domain.PlanStarter || data.Limit != 50 || data.Remaining != 50 {
		t.Errorf("unexpected usage payload %+v", data)
	}
}

func TestWritingSamplesOverHTTP(t *testing.T) {
	env := newTestRouter(t)

	rec := doJSON(t, env.router, http.MethodPost, "/v1/writing-samples", testShopDom,
		domain.CreateWritingSampleRequest{FileName: "voice.txt", Content: "Our voice is warm."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, env.router, http.MethodGet, "/v1/writing-samples", testShopDom, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodDelete, "/v1/writing-samples/sample-1", testShopDom, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", rec.Code)
	}
}

func TestUninstallWebhook(t *testing.T) {
	env := newTestRouter(t)

	payload := []byte(`{"domain":"` + testShopDom + `"}`)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/app-uninstalled", bytes.NewReader(payload))
	req.Header.Set("X-Shopify-Hmac-Sha256", signature)
	req.Header.Set("X-Shopify-Shop-Domain", testShopDom)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if env.shops.deactivated != 1 {
		t.Error("expected shop deactivated")
	}

	// Tampered signature is rejected.
	req = httptest.NewRequest(http.MethodPost, "/v1/webhooks/app-uninstalled", bytes.NewReader(payload))
	req.Header.Set("X-Shopify-Hmac-Sha256", "bm90LWEtcmVhbC1zaWduYXR1cmU=")
	req.Header.Set("X-Shopify-Shop-Domain", testShopDom)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", rec.Code)
	}
}
