package repository

import (
	"context"
	"time"
)

// Property statuses.
const (
	PropertyActive   = "active"
	PropertyArchived = "archived"
)

// Property is a building or house managed on behalf of an owner.
type Property struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"site_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	Kind       string    `json:"kind"`   // apartment | house | commercial | mixed
	Status     string    `json:"status"` // active | archived
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreatePropertyInput contains the data to create a property.
type CreatePropertyInput struct {
	Name       string
	Address    string
	City       string
	Region     string
	PostalCode string
	Lat        *float64
	Lng        *float64
	Kind       string
}

// UpdatePropertyInput contains the updatable fields of a property.
type UpdatePropertyInput struct {
	Name       *string
	Address    *string
	City       *string
	Region     *string
	PostalCode *string
	Lat        *float64
	Lng        *float64
	Kind       *string
	Status     *string
}

// ListPropertiesFilter narrows and paginates property listings.
type ListPropertiesFilter struct {
	Status string
	Search string // matches name or address
	Limit  int    // default 50, max 200
	Offset int
}

// PropertyRepository defines operations over properties.
type PropertyRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Property, error)
	List(ctx context.Context, siteID string, filter ListPropertiesFilter) ([]Property, error)
	Create(ctx context.Context, siteID string, input CreatePropertyInput) (*Property, error)
	Update(ctx context.Context, siteID, id string, input UpdatePropertyInput) error
	Delete(ctx context.Context, siteID, id string) error
}
