package repository

import (
	"context"
	"time"
)

// Entity types an image or document may attach to.
const (
	EntityProperty = "property"
	EntityUnit     = "unit"
	EntityLead     = "lead"
	EntityLease    = "lease"
	EntityTenant   = "tenant"
)

// ValidEntityType reports whether t is an attachable entity type.
func ValidEntityType(t string) bool {
	switch t {
	case EntityProperty, EntityUnit, EntityLead, EntityLease, EntityTenant:
		return true
	}
	return false
}

// Image is a publicly servable picture stored in the public bucket
// and referenced by object key.
type Image struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateImageInput contains the data to register an uploaded image.
type CreateImageInput struct {
	EntityType  string
	EntityID    string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	SortOrder   int
}

// ImageRepository defines operations over image records.
type ImageRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Image, error)
	ListByEntity(ctx context.Context, siteID, entityType, entityID string) ([]Image, error)
	Create(ctx context.Context, siteID string, input CreateImageInput) (*Image, error)
	Delete(ctx context.Context, siteID, id string) error

	// Reorder persists a new sort order for all images of an entity in a
	// single atomic batch, never as independent updates.
	Reorder(ctx context.Context, siteID, entityType, entityID string, orderedIDs []string) error
}

// Document is a confidential file stored in the private bucket.
type Document struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	ObjectKey   string    `json:"object_key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateDocumentInput contains the data to register an uploaded document.
type CreateDocumentInput struct {
	EntityType  string
	EntityID    string
	ObjectKey   string
	Filename    string
	ContentType string
	SizeBytes   int64
}

// DocumentRepository defines operations over document records.
type DocumentRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Document, error)
	ListByEntity(ctx context.Context, siteID, entityType, entityID string) ([]Document, error)
	Create(ctx context.Context, siteID string, input CreateDocumentInput) (*Document, error)
	Delete(ctx context.Context, siteID, id string) error
}
