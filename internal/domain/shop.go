package domain

import "time"

// Shop is a merchant tenant, identified by its storefront domain.
// Created on install (first successful token exchange), deactivated on
// uninstall. Never hard-deleted.
type Shop struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	IsActive    bool      `json:"is_active"`
	Plan        string    `json:"plan"`
	InstalledAt time.Time `json:"installed_at"`
}

// Plan tiers. Unknown values fall back to PlanStarter for quota purposes.
const (
	PlanStarter  = "starter"
	PlanStandard = "standard"
	PlanPro      = "pro"
)

// SessionCredential is a short-lived Admin API access token obtained by
// exchanging an embedded session token. It must be refreshed on a fixed
// cadence while the embedded UI is open.
type SessionCredential struct {
	AccessToken string
	Scope       string
	ExpiresAt   time.Time
}

// Expired reports whether the credential is past its expiry.
func (c *SessionCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// SessionBootstrapResponse is returned by GET /v1/session/bootstrap for the
// first embedded page load.
type SessionBootstrapResponse struct {
	ShopID   string `json:"shop_id"`
	Domain   string `json:"domain"`
	Plan     string `json:"plan"`
	IsActive bool   `json:"is_active"`
}
