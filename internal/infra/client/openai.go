package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
)

// OpenAIClient calls the chat-completions API for profile synthesis and
// description enhancement.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewOpenAIClient creates a text-generation client.
func NewOpenAIClient(httpClient *http.Client, baseURL, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *OpenAIClient {
	return &OpenAIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate produces a completion for the given system/user prompt pair.
func (c *OpenAIClient) Generate(ctx context.Context, req *domain.TextGenRequest) (*domain.TextGenResult, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()

	var result domain.TextGenResult
	var policyErr *domain.ErrContentPolicy

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			messages := []chatMessage{}
			if req.System != "" {
				messages = append(messages, chatMessage{Role: "system", Content: req.System})
			}
			messages = append(messages, chatMessage{Role: "user", Content: req.User})

			body, err := json.Marshal(chatCompletionRequest{
				Model:    c.model,
				Messages: messages,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				respBody, _ := io.ReadAll(resp.Body)
				// Safety rejections are terminal — do not burn retries on them.
				if isContentPolicyRejection(resp.StatusCode, respBody) {
					policyErr = &domain.ErrContentPolicy{Message: "prompt rejected by the provider's content policy"}
					return nil
				}
				return fmt.Errorf("chat completions returned status %d", resp.StatusCode)
			}

			var completion chatCompletionResponse
			if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
				return err
			}
			if len(completion.Choices) == 0 {
				return fmt.Errorf("chat completions returned no choices")
			}

			result = domain.TextGenResult{
				Text:       completion.Choices[0].Message.Content,
				Model:      completion.Model,
				TokensUsed: completion.Usage.TotalTokens,
			}
			return nil
		})
	})

	if policyErr != nil {
		return nil, policyErr
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "openai"}
		}
		return nil, &domain.ErrExternalService{Service: "openai", Err: err}
	}

	return &result, nil
}

// isContentPolicyRejection matches the provider's safety-filter error shape.
func isContentPolicyRejection(status int, body []byte) bool {
	if status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(string(body), "content_policy")
}
