package repository

import (
	"context"
	"time"
)

// Lead statuses.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadScreening = "screening"
	LeadApproved  = "approved"
	LeadRejected  = "rejected"
)

// Screening statuses.
const (
	ScreeningPending = "pending"
	ScreeningClear   = "clear"
	ScreeningFlagged = "flagged"
)

// Screening holds the result of an (external) applicant evaluation.
// Status "pending" until the integration reports back.
type Screening struct {
	Status      string     `json:"status"` // pending | clear | flagged
	Score       *int       `json:"score,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Lead is an applicant or inquiry coming from the public site.
type Lead struct {
	ID         string     `json:"id"`
	SiteID     string     `json:"site_id"`
	PropertyID *string    `json:"property_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	Screening  *Screening `json:"screening,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateLeadInput contains the data captured by the intake form.
type CreateLeadInput struct {
	PropertyID *string
	Name       string
	Email      string
	Phone      string
	Message    string
}

// ListLeadsFilter narrows and paginates lead listings.
type ListLeadsFilter struct {
	Status     string
	PropertyID string
	Limit      int
	Offset     int
}

// LeadRepository defines operations over leads.
type LeadRepository interface {
	GetByID(ctx context.Context, siteID, id string) (*Lead, error)
	List(ctx context.Context, siteID string, filter ListLeadsFilter) ([]Lead, error)
	Create(ctx context.Context, siteID string, input CreateLeadInput) (*Lead, error)
	SetStatus(ctx context.Context, siteID, id, status string) error
	SetScreening(ctx context.Context, siteID, id string, s *Screening) error
	Delete(ctx context.Context, siteID, id string) error
}
