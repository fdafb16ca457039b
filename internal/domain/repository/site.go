package repository

import (
	"context"
	"time"
)

// Site is one customer's isolated slice of the shared deployment.
type Site struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	CustomDomain string         `json:"custom_domain,omitempty"`
	Theme        map[string]any `json:"theme,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateSiteInput contains the data to create a site.
type CreateSiteInput struct {
	Slug         string
	Name         string
	CustomDomain string
	Theme        map[string]any
}

// UpdateSiteInput contains the updatable fields of a site.
type UpdateSiteInput struct {
	Name         *string
	CustomDomain *string
	Theme        map[string]any
}

// SiteRepository defines operations over sites.
type SiteRepository interface {
	// GetByID returns ErrNotFound if the site does not exist.
	GetByID(ctx context.Context, id string) (*Site, error)

	// GetBySlug returns ErrNotFound if the site does not exist.
	GetBySlug(ctx context.Context, slug string) (*Site, error)

	// GetByDomain resolves a site from a request hostname.
	GetByDomain(ctx context.Context, domain string) (*Site, error)

	// List returns all sites ordered by slug.
	List(ctx context.Context) ([]Site, error)

	// Create returns ErrConflict if the slug is taken.
	Create(ctx context.Context, input CreateSiteInput) (*Site, error)

	// Update updates site fields. Returns ErrNotFound if missing.
	Update(ctx context.Context, id string, input UpdateSiteInput) error
}
