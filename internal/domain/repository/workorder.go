package repository

import (
	"context"
	"time"
)

// Work order priorities and statuses.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	WorkOrderOpen       = "open"
	WorkOrderInProgress = "in_progress"
	WorkOrderDone       = "done"
	WorkOrderCancelled  = "cancelled"
)

// WorkOrder is a maintenance request against a property or unit.
type WorkOrder struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	PropertyID  string    `json:"property_id"`
	UnitID      *string   `json:"unit_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateWorkOrderInput contains the data to open a work order.
type CreateWorkOrderInput struct {
	PropertyID  string
	UnitID      *string
	Title       string
	Description string
	Priority    string
}

// UpdateWorkOrderInput contains the updatable fields of a work order.
type UpdateWorkOrderInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
}

// ListWorkOrdersFilter narrows and paginates work order listings.
type ListWorkOrdersFilter struct {
	PropertyID string
	UnitID     string
	Status     string
	Priority   string
	Limit      int
	Offset     int
}

// WorkOrderRepository defines operations over work orders.
type WorkOrderRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*WorkOrder, error)
	List(ctx context.Context, siteID string, filter ListWorkOrdersFilter) ([]WorkOrder, error)
	Create(ctx context.Context, siteID string, input CreateWorkOrderInput) (*WorkOrder, error)
	Update(ctx context.Context, siteID, id string, input UpdateWorkOrderInput) error
	Delete(ctx context.Context, siteID, id string) error
}
