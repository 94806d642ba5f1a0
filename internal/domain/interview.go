package domain

import (
	"strings"
	"time"
)

// ============================================================
// Business-profile interview — states, answers, progress
// ============================================================

// Interview modes. quick_start covers the essential prompts only;
// full walks through the complete catalog.
const (
	ModeQuickStart = "quick_start"
	ModeFull       = "full"
)

// Interview statuses. Status reaches completed only once every required
// prompt has a stored answer AND the profile text has been synthesized.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// BusinessProfile is the one active interview/profile record per shop.
type BusinessProfile struct {
	ID          string            `json:"id"`
	ShopID      string            `json:"shop_id"`
	Mode        string            `json:"mode,omitempty"`
	Status      string            `json:"status"`
	Answers     []InterviewAnswer `json:"answers,omitempty"`
	ProfileText string            `json:"profile_text,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// HasProfileText reports whether synthesis has produced a profile narrative.
func (p *BusinessProfile) HasProfileText() bool {
	return p != nil && strings.TrimSpace(p.ProfileText) != ""
}

// AnsweredKeys returns the set of prompt keys already answered.
func (p *BusinessProfile) AnsweredKeys() map[string]bool {
	keys := make(map[string]bool, len(p.Answers))
	for _, a := range p.Answers {
		keys[a.PromptKey] = true
	}
	return keys
}

// InterviewAnswer is one stored answer for a prompt.
type InterviewAnswer struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profile_id"`
	PromptKey      string    `json:"prompt_key"`
	QuestionNumber int       `json:"question_number"`
	ResponseText   string    `json:"response_text"`
	WordCount      int       `json:"word_count"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// WordCount tokenizes on whitespace and discards empty tokens.
// strings.Fields already collapses runs of whitespace.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ============================================================
// Request/response shapes for the interview routes
// ============================================================

// StartInterviewRequest is the body for POST /v1/business-profile/start.
type StartInterviewRequest struct {
	Mode string `json:"mode"`
}

// SubmitAnswerRequest is the body for POST /v1/business-profile/answer.
// WebsiteURL and SocialURL are only honored for the compound overview
// prompt; they are concatenated with ResponseText before word counting.
type SubmitAnswerRequest struct {
	PromptKey      string `json:"prompt_key"`
	QuestionNumber int    `json:"question_number"`
	ResponseText   string `json:"response_text"`
	WebsiteURL     string `json:"website_url,omitempty"`
	SocialURL      string `json:"social_url,omitempty"`
}

// InterviewProgress is echoed back after start/answer/status calls.
type InterviewProgress struct {
	Mode               string           `json:"mode,omitempty"`
	Status             string           `json:"status"`
	AnsweredCount      int              `json:"answered_count"`
	TotalPrompts       int              `json:"total_prompts"`
	PercentageComplete float64          `json:"percentage_complete"`
	InterviewComplete  bool             `json:"interview_complete"`
	NextPrompt         *InterviewPrompt `json:"next_prompt,omitempty"`
}

// ProfileStatusResponse is the payload for GET /v1/business-profile.
type ProfileStatusResponse struct {
	Progress    InterviewProgress `json:"progress"`
	Answers     []InterviewAnswer `json:"answers,omitempty"`
	ProfileText string            `json:"profile_text,omitempty"`
	GeneratedAt *time.Time        `json:"generated_at,omitempty"`
}
