package domain

import "time"

// ============================================================
// Content generation — image iteration & description enhancement
// ============================================================

// MaxFeedbackLength caps the free-text feedback on an image iteration.
const MaxFeedbackLength = 2000

// IterateImageRequest is the body for POST /v1/iterate-image.
type IterateImageRequest struct {
	ConversationID   string `json:"conversation_id,omitempty"`
	PreviousImageURL string `json:"previous_image_url"`
	Feedback         string `json:"feedback"`
	Provider         string `json:"provider,omitempty"`
	AspectRatio      string `json:"aspect_ratio,omitempty"`
	Quality          string `json:"quality,omitempty"`
}

// IterateImageResponse is the result of a successful image iteration.
type IterateImageResponse struct {
	ConversationID string `json:"conversation_id"`
	ImageURL       string `json:"image_url"`
	CostCents      int    `json:"cost_cents"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	CreatedAt      string `json:"created_at"`
}

// EnhanceDescriptionRequest is the body for POST /v1/enhance-description.
type EnhanceDescriptionRequest struct {
	ProductTitle       string   `json:"product_title"`
	CurrentDescription string   `json:"current_description"`
	Keywords           []string `json:"keywords,omitempty"`
}

// EnhanceDescriptionResponse carries the rewritten description.
type EnhanceDescriptionResponse struct {
	Description string `json:"description"`
	Model       string `json:"model"`
	TokensUsed  int    `json:"tokens_used"`
}

// ============================================================
// Provider-facing contracts (ports consume these)
// ============================================================

// ImageEditRequest is what the image-generation provider receives.
type ImageEditRequest struct {
	Instruction    string
	ReferenceURL   string
	AspectRatio    string
	Quality        string
	PreferredModel string
}

// ImageEditResult is the provider's response.
type ImageEditResult struct {
	ImageURL  string
	CostCents int
	Provider  string
	Model     string
}

// TextGenRequest is what the text-generation provider receives.
type TextGenRequest struct {
	System string
	User   string
}

// TextGenResult is the provider's response.
type TextGenResult struct {
	Text       string
	Model      string
	TokensUsed int
}

// GenerationTimestamp formats timestamps the way generation responses
// expose them.
func GenerationTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
