package domain

// AIMetrics is the snapshot served by GET /v1/metrics/ai.
type AIMetrics struct {
	TotalGenerations int64   `json:"total_generations"`
	ErrorRate        float64 `json:"error_rate"`
	TokensUsed       int64   `json:"tokens_used"`
	QuotaDenials     int64   `json:"quota_denials"`
	CostCents        int64   `json:"cost_cents"`
	Period           string  `json:"period"`
}
