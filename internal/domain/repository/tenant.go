package repository

import (
	"context"
	"time"
)

// Tenant is a renter. Not to be confused with a Site, which is the
// SaaS customer owning the data.
type Tenant struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTenantInput contains the data to create a tenant.
type CreateTenantInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// UpdateTenantInput contains the updatable fields of a tenant.
type UpdateTenantInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
}

// ListTenantsFilter narrows and paginates tenant listings.
type ListTenantsFilter struct {
	Search string // matches name or email
	Limit  int
	Offset int
}

// TenantRepository defines operations over tenants.
type TenantRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Tenant, error)
	List(ctx context.Context, siteID string, filter ListTenantsFilter) ([]Tenant, error)
	Create(ctx context.Context, siteID string, input CreateTenantInput) (*Tenant, error)
	Update(ctx context.Context, siteID, id string, input UpdateTenantInput) error
	Delete(ctx context.Context, siteID, id string) error
}
