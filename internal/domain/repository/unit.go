package repository

import (
	"context"
	"time"
)

// Unit statuses.
const (
	UnitVacant   = "vacant"
	UnitListed   = "listed"
	UnitOccupied = "occupied"
)

// Unit is a rentable space within a property.
type Unit struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"site_id"`
	PropertyID string    `json:"property_id"`
	Label      string    `json:"label"`
	Bedrooms   int       `json:"bedrooms"`
	Bathrooms  float64   `json:"bathrooms"`
	Sqft       int       `json:"sqft"`
	RentCents  int64     `json:"rent_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateUnitInput contains the data to create a unit.
type CreateUnitInput struct {
	PropertyID string
	Label      string
	Bedrooms   int
	Bathrooms  float64
	Sqft       int
	RentCents  int64
}

// UpdateUnitInput contains the updatable fields of a unit.
type UpdateUnitInput struct {
	Label     *string
	Bedrooms  *int
	Bathrooms *float64
	Sqft      *int
	RentCents *int64
	Status    *string
}

// ListUnitsFilter narrows and paginates unit listings.
type ListUnitsFilter struct {
	PropertyID string
	Status     string
	Limit      int
	Offset     int
}

// Listing is a public-facing join of a listed unit and its property.
type Listing struct {
	Unit     Unit     `json:"unit"`
	Property Property `json:"property"`
}

// UnitRepository defines operations over units.
type UnitRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Unit, error)
	List(ctx context.Context, siteID string, filter ListUnitsFilter) ([]Unit, error)
	Create(ctx context.Context, siteID string, input CreateUnitInput) (*Unit, error)
	Update(ctx context.Context, siteID, id string, input UpdateUnitInput) error
	Delete(ctx context.Context, siteID, id string) error

	// SetStatus is used by lease transitions to keep unit occupancy in sync.
	SetStatus(ctx context.Context, siteID, id, status string) error

	// Listings returns listed units joined to their active properties,
	// for the public API.
	Listings(ctx context.Context, siteID string, limit, offset int) ([]Listing, error)
}
