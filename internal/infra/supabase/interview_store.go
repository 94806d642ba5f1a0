package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thundertext/thunder-api/internal/domain"
)

// ============================================================
// Business profiles & interview answers (implements port.InterviewStore)
// ============================================================

// profileRow maps the business_profiles table columns.
type profileRow struct {
	ID          string `json:"id"`
	ShopID      string `json:"shop_id"`
	Mode        string `json:"interview_mode"`
	Status      string `json:"interview_status"`
	ProfileText string `json:"profile_text"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (r *profileRow) toDomain() *domain.BusinessProfile {
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, r.UpdatedAt)
	return &domain.BusinessProfile{
		ID:          r.ID,
		ShopID:      r.ShopID,
		Mode:        r.Mode,
		Status:      r.Status,
		ProfileText: r.ProfileText,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// answerRow maps the interview_answers table columns.
type answerRow struct {
	ID             string `json:"id"`
	ProfileID      string `json:"profile_id"`
	PromptKey      string `json:"prompt_key"`
	QuestionNumber int    `json:"question_number"`
	ResponseText   string `json:"response_text"`
	WordCount      int    `json:"word_count"`
	AnsweredAt     string `json:"answered_at"`
}

func (r *answerRow) toDomain() domain.InterviewAnswer {
	answeredAt, _ := time.Parse(time.RFC3339, r.AnsweredAt)
	return domain.InterviewAnswer{
		ID:             r.ID,
		ProfileID:      r.ProfileID,
		PromptKey:      r.PromptKey,
		QuestionNumber: r.QuestionNumber,
		ResponseText:   r.ResponseText,
		WordCount:      r.WordCount,
		AnsweredAt:     answeredAt,
	}
}

// GetProfileByShop fetches the shop's single interview/profile record.
func (c *Client) GetProfileByShop(ctx context.Context, shopID string) (*domain.BusinessProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileByShop")
	defer span.End()
	span.SetAttributes(attribute.String("shop.id", shopID))

	path := fmt.Sprintf("business_profiles?shop_id=eq.%s&limit=1", url.QueryEscape(shopID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/business_profiles", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "business_profile", ID: shopID}
	}

	var rows []profileRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode business_profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "business_profile", ID: shopID}
	}
	return rows[0].toDomain(), nil
}

// CreateProfile creates the shop's interview record in in_progress state.
func (c *Client) CreateProfile(ctx context.Context, shopID, mode string) (*domain.BusinessProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":               uuid.New().String(),
		"shop_id":          shopID,
		"interview_mode":   mode,
		"interview_status": domain.StatusInProgress,
		"created_at":       now,
		"updated_at":       now,
	}

	body, err := c.doPost(ctx, "business_profiles", data)
	if err != nil {
		return nil, err
	}

	var rows []profileRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode business_profiles: %w", err)
	}
	if len(rows) == 0 {
		return &domain.BusinessProfile{
			ID:     data["id"].(string),
			ShopID: shopID,
			Mode:   mode,
			Status: domain.StatusInProgress,
		}, nil
	}
	return rows[0].toDomain(), nil
}

// UpdateProfile patches profile fields (status, mode, profile_text).
func (c *Client) UpdateProfile(ctx context.Context, profileID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	path := fmt.Sprintf("business_profiles?id=eq.%s", url.QueryEscape(profileID))
	return c.doPatch(ctx, path, updates)
}

// ListAnswers returns the stored answers in question order.
func (c *Client) ListAnswers(ctx context.Context, profileID string) ([]domain.InterviewAnswer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAnswers")
	defer span.End()

	path := fmt.Sprintf("interview_answers?profile_id=eq.%s&order=question_number.asc", url.QueryEscape(profileID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/interview_answers", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.InterviewAnswer{}, nil
	}

	var rows []answerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode interview_answers: %w", err)
	}

	answers := make([]domain.InterviewAnswer, 0, len(rows))
	for i := range rows {
		answers = append(answers, rows[i].toDomain())
	}
	return answers, nil
}

// InsertAnswer appends one answer row.
func (c *Client) InsertAnswer(ctx context.Context, answer *domain.InterviewAnswer) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertAnswer")
	defer span.End()

	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	data := map[string]any{
		"id":              answer.ID,
		"profile_id":      answer.ProfileID,
		"prompt_key":      answer.PromptKey,
		"question_number": answer.QuestionNumber,
		"response_text":   answer.ResponseText,
		"word_count":      answer.WordCount,
		"answered_at":     answer.AnsweredAt.UTC().Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "interview_answers", data)
	return err
}

// DeleteAnswers removes all stored answers for a profile (reset).
func (c *Client) DeleteAnswers(ctx context.Context, profileID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAnswers")
	defer span.End()

	path := fmt.Sprintf("interview_answers?profile_id=eq.%s", url.QueryEscape(profileID))
	return c.doDelete(ctx, path)
}
