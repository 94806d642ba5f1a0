package domain

// ============================================================
// Interview prompt catalog — static, read-only reference data
// ============================================================

// InterviewPrompt is one question in the brand-voice interview.
// Prompts are served in fixed catalog order; the quick_start track
// uses the QuickStart subset, the full track uses everything.
type InterviewPrompt struct {
	Key        string `json:"key"`
	Question   string `json:"question"`
	MinWords   int    `json:"min_words"`
	QuickStart bool   `json:"quick_start"`

	// Compound marks the one prompt whose answer may carry two optional
	// URL fields. The URLs are concatenated with the free text before
	// word counting.
	Compound bool `json:"compound,omitempty"`
}

// InterviewPrompts is the full ordered catalog. Question numbers are
// 1-based positions within the selected mode, not within this slice.
var InterviewPrompts = []InterviewPrompt{
	{
		Key:        "business_overview",
		Question:   "Tell us about your business: what you sell, who you sell to, and what makes you different. Include your website or social links if you have them.",
		MinWords:   20,
		QuickStart: true,
		Compound:   true,
	},
	{
		Key:        "target_customer",
		Question:   "Describe your ideal customer. Who are they, what do they care about, and why do they buy from you?",
		MinWords:   15,
		QuickStart: true,
	},
	{
		Key:        "brand_personality",
		Question:   "If your brand were a person, how would you describe their personality? Playful, authoritative, warm, edgy?",
		MinWords:   10,
		QuickStart: true,
	},
	{
		Key:        "tone_of_voice",
		Question:   "How do you want your product descriptions to sound? Give examples of words or phrases you love — and ones you'd never use.",
		MinWords:   15,
		QuickStart: true,
	},
	{
		Key:        "key_differentiators",
		Question:   "What sets your products apart from competitors? Quality, sourcing, craftsmanship, price, story?",
		MinWords:   15,
		QuickStart: true,
	},
	{
		Key:        "customer_pain_points",
		Question:   "What problems do your products solve for customers? What frustrations do they have before finding you?",
		MinWords:   15,
		QuickStart: true,
	},
	{
		Key:        "success_story",
		Question:   "Share a story of a customer who loved your product. What did they say, and why did it resonate?",
		MinWords:   15,
		QuickStart: true,
	},
	{
		Key:      "brand_story",
		Question: "How did your business start? Tell the founding story you'd want customers to know.",
		MinWords: 20,
	},
	{
		Key:      "product_categories",
		Question: "Walk us through your main product lines. Which are bestsellers, and which are you most proud of?",
		MinWords: 15,
	},
	{
		Key:      "values_and_mission",
		Question: "What values drive your business? Sustainability, community, craftsmanship, inclusivity?",
		MinWords: 15,
	},
	{
		Key:      "seo_keywords",
		Question: "What search terms do you want to rank for? List the words customers use when looking for products like yours.",
		MinWords: 10,
	},
	{
		Key:      "content_goals",
		Question: "What should great product content achieve for you? More conversions, fewer returns, stronger brand recognition?",
		MinWords: 10,
	},
}

// PromptsForMode returns the ordered prompt list for the given mode.
func PromptsForMode(mode string) []InterviewPrompt {
	if mode != ModeQuickStart {
		return InterviewPrompts
	}
	prompts := make([]InterviewPrompt, 0, len(InterviewPrompts))
	for _, p := range InterviewPrompts {
		if p.QuickStart {
			prompts = append(prompts, p)
		}
	}
	return prompts
}

// PromptByKey looks up a prompt in the catalog. Returns nil when unknown.
func PromptByKey(key string) *InterviewPrompt {
	for i := range InterviewPrompts {
		if InterviewPrompts[i].Key == key {
			return &InterviewPrompts[i]
		}
	}
	return nil
}
