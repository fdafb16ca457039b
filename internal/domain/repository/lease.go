package repository

import (
	"context"
	"time"
)

// Lease statuses. Transitions: draft → active → ended | terminated.
const (
	LeaseDraft      = "draft"
	LeaseActive     = "active"
	LeaseEnded      = "ended"
	LeaseTerminated = "terminated"
)

// ChecklistItem is one step of the lease onboarding checklist.
type ChecklistItem struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Done        bool       `json:"done"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DefaultChecklist returns the onboarding steps for a new lease.
func DefaultChecklist() []ChecklistItem {
	return []ChecklistItem{
		{Key: "application", Label: "Application approved"},
		{Key: "screening", Label: "Background screening complete"},
		{Key: "signed", Label: "Lease signed"},
		{Key: "deposit", Label: "Deposit collected"},
		{Key: "keys", Label: "Keys handed over"},
	}
}

// Lease binds a tenant to a unit for a term.
type Lease struct {
	ID           string          `json:"id"`
	SiteID       string          `json:"site_id"`
	UnitID       string          `json:"unit_id"`
	TenantID     string          `json:"tenant_id"`
	StartsOn     time.Time       `json:"starts_on"`
	EndsOn       time.Time       `json:"ends_on"`
	RentCents    int64           `json:"rent_cents"`
	DepositCents int64           `json:"deposit_cents"`
	Status       string          `json:"status"`
	Checklist    []ChecklistItem `json:"checklist"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateLeaseInput contains the data to create a lease (always draft).
type CreateLeaseInput struct {
	UnitID       string
	TenantID     string
	StartsOn     time.Time
	EndsOn       time.Time
	RentCents    int64
	DepositCents int64
}

// UpdateLeaseInput contains the updatable fields of a draft lease.
type UpdateLeaseInput struct {
	StartsOn     *time.Time
	EndsOn       *time.Time
	RentCents    *int64
	DepositCents *int64
}

// ListLeasesFilter narrows and paginates lease listings.
type ListLeasesFilter struct {
	UnitID   string
	TenantID string
	Status   string
	Limit    int
	Offset   int
}

// LeaseRepository defines operations over leases.
type LeaseRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Lease, error)
	List(ctx context.Context, siteID string, filter ListLeasesFilter) ([]Lease, error)
	Create(ctx context.Context, siteID string, input CreateLeaseInput) (*Lease, error)
	Update(ctx context.Context, siteID, id string, input UpdateLeaseInput) error
	Delete(ctx context.Context, siteID, id string) error

	// ActiveForUnit returns the active lease of a unit, or ErrNotFound.
	ActiveForUnit(ctx context.Context, siteID, unitID string) (*Lease, error)

	// SetStatus updates lease status only; occupancy sync and transition
	// validation live in the service layer.
	SetStatus(ctx context.Context, siteID, id, status string) error

	// SetChecklist replaces the stored checklist JSON.
	SetChecklist(ctx context.Context, siteID, id string, items []ChecklistItem) error
}
