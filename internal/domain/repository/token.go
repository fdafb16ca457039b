package repository

import (
	"context"
	"time"
)

// APIToken is a long-lived machine credential scoped to one site.
// Only the derived hash is persisted; the plaintext is shown once.
type APIToken struct {
	ID         string     `json:"id"`
	SiteID     string     `json:"site_id"`
	Label      string     `json:"label"`
	TokenHash  string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Usable reports whether the token authenticates at instant now.
// Expiry is exclusive: a token expiring exactly at now is expired.
func (t *APIToken) Usable(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}

// CreateAPITokenInput contains the data to persist a freshly minted token.
type CreateAPITokenInput struct {
	SiteID    string
	Label     string
	TokenHash string
	ExpiresAt *time.Time
}

// APITokenRepository defines operations over API tokens.
type APITokenRepository interface {
	// GetByHash looks a token up by its derived hash (equality only).
	// Returns ErrNotFound if no row matches.
	GetByHash(ctx context.Context, tokenHash string) (*APIToken, error)

	// ListBySite returns all tokens of a site, newest first.
	ListBySite(ctx context.Context, siteID string) ([]APIToken, error)

	// Create persists the hash of a new token.
	Create(ctx context.Context, input CreateAPITokenInput) (*APIToken, error)

	// Revoke flips is_active off. Returns ErrNotFound if missing.
	Revoke(ctx context.Context, siteID, id string) error

	// TouchLastUsed updates last_used_at. Best-effort: callers ignore
	// the error.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}
