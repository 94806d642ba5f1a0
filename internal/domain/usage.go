package domain

import "time"

// UsageRecord is one billable AI action. Append-only; rows are aggregated
// by calendar-month window (UTC) to enforce the plan quota.
type UsageRecord struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Kind      string    `json:"kind"`
	CostCents int       `json:"cost_cents"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// QuotaStatus is the result of a monthly quota check.
type QuotaStatus struct {
	Allowed bool `json:"allowed"`
	Used    int  `json:"used"`
	Limit   int  `json:"limit"`
}

// planLimits maps plan tier to monthly generation limit.
var planLimits = map[string]int{
	PlanStarter:  50,
	PlanStandard: 250,
	PlanPro:      1000,
}

// PlanLimit returns the monthly limit for a plan.
// Unknown plans fall back to the lowest tier.
func PlanLimit(plan string) int {
	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	return planLimits[PlanStarter]
}

// MonthWindow returns the [start, now] window for the current calendar
// month. The boundary is pinned to UTC so quota does not shift with the
// client's timezone.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, now
}
