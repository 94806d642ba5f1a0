package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
)

// ImageClient calls the image-generation provider's edit endpoint for
// feedback-driven image iteration.
type ImageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewImageClient creates an image-generation client.
func NewImageClient(httpClient *http.Client, baseURL, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ImageClient {
	return &ImageClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
	}
}

type imageEditRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image_url"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Quality     string `json:"quality,omitempty"`
}

type imageEditResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Model     string `json:"model"`
	CostCents int    `json:"cost_cents"`
}

// Edit iterates on a previous image: the instruction carries the user
// feedback, the reference URL anchors composition and style.
func (c *ImageClient) Edit(ctx context.Context, req *domain.ImageEditRequest) (*domain.ImageEditResult, error) {
	ctx, span := tracer.Start(ctx, "ImageClient.Edit")
	defer span.End()
	span.SetAttributes(attribute.String("image.model", c.model))

	model := c.model
	if req.PreferredModel != "" {
		model = req.PreferredModel
	}

	var result domain.ImageEditResult
	var policyErr *domain.ErrContentPolicy

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(imageEditRequest{
				Model:       model,
				Prompt:      req.Instruction,
				ImageURL:    req.ReferenceURL,
				AspectRatio: req.AspectRatio,
				Quality:     req.Quality,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/images/edits", c.baseURL)
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
					policyErr = &domain.ErrContentPolicy{Message: "image request rejected by the provider's content policy"}
					return nil
				}
				return fmt.Errorf("image edits returned status %d", resp.StatusCode)
			}

			var edited imageEditResponse
			if err := json.NewDecoder(resp.Body).Decode(&edited); err != nil {
				return err
			}
			if len(edited.Data) == 0 {
				return fmt.Errorf("image edits returned no data")
			}

			respModel := edited.Model
			if respModel == "" {
				respModel = model
			}
			result = domain.ImageEditResult{
				ImageURL:  edited.Data[0].URL,
				CostCents: edited.CostCents,
				Provider:  "openai",
				Model:     respModel,
			}
			return nil
		})
	})

	if policyErr != nil {
		return nil, policyErr
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "images"}
		}
		return nil, &domain.ErrExternalService{Service: "images", Err: err}
	}

	return &result, nil
}
