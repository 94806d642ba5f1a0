package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/client"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
)

func testResilienceConfig() resilience.Config {
	// MaxRetries counts retries after the first attempt: 3 calls total.
	return resilience.Config{MaxRetries: 2, InitialBackoff: 5 * time.Millisecond}
}

func TestOpenAI_GenerateSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "Your brand is..."}}],
			"usage": {"total_tokens": 512}
		}`))
	}))
	defer srv.Close()

	c := client.NewOpenAIClient(srv.Client(), srv.URL, "test-key", "gpt-4o-mini",
		resilience.NewCircuitBreaker("openai-test"), testResilienceConfig())

	result, err := c.Generate(context.Background(), &domain.TextGenRequest{
		System: "You are a brand strategist.",
		User:   "Synthesize the profile.",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Text != "Your brand is..." {
		t.Errorf("unexpected text %q", result.Text)
	}
	if result.TokensUsed != 512 {
		t.Errorf("expected 512 tokens, got %d", result.TokensUsed)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestOpenAI_ContentPolicyNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": "content_policy_violation", "message": "rejected"}}`))
	}))
	defer srv.Close()

	c := client.NewOpenAIClient(srv.Client(), srv.URL, "test-key", "gpt-4o-mini",
		resilience.NewCircuitBreaker("openai-policy-test"), testResilienceConfig())

	_, err := c.Generate(context.Background(), &domain.TextGenRequest{User: "nope"})

	var policy *domain.ErrContentPolicy
	if err == nil || !errors.As(err, &policy) {
		t.Fatalf("expected content-policy error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("safety rejection must not be retried, got %d calls", calls)
	}
}

func TestOpenAI_ServerErrorRetriedThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.NewOpenAIClient(srv.Client(), srv.URL, "test-key", "gpt-4o-mini",
		resilience.NewCircuitBreaker("openai-retry-test"), testResilienceConfig())

	_, err := c.Generate(context.Background(), &domain.TextGenRequest{User: "hello"})

	var external *domain.ErrExternalService
	if err == nil || !errors.As(err, &external) {
		t.Fatalf("expected external-service error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestImages_EditSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/edits" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [{"url": "https://cdn.example/out.png"}],
			"model": "gpt-image-1",
			"cost_cents": 4
		}`))
	}))
	defer srv.Close()

	c := client.NewImageClient(srv.Client(), srv.URL, "test-key", "gpt-image-1",
		resilience.NewCircuitBreaker("images-test"), testResilienceConfig())

	result, err := c.Edit(context.Background(), &domain.ImageEditRequest{
		Instruction:  "warmer background",
		ReferenceURL: "https://cdn.example/in.png",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ImageURL != "https://cdn.example/out.png" || result.CostCents != 4 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestImages_ContentPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": "content_policy_violation"}}`))
	}))
	defer srv.Close()

	c := client.NewImageClient(srv.Client(), srv.URL, "test-key", "gpt-image-1",
		resilience.NewCircuitBreaker("images-policy-test"), testResilienceConfig())

	_, err := c.Edit(context.Background(), &domain.ImageEditRequest{
		Instruction:  "prompt",
		ReferenceURL: "https://cdn.example/in.png",
	})

	var policy *domain.ErrContentPolicy
	if err == nil || !errors.As(err, &policy) {
		t.Fatalf("expected content-policy error, got %v", err)
	}
}
