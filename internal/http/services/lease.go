package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// LeaseService owns the lease lifecycle: draft → active → ended or
// terminated, plus the unit occupancy that follows it.
type LeaseService struct {
	Leases  repository.LeaseRepository
	Units   repository.UnitRepository
	Tenants repository.TenantRepository
}

// Create opens a draft lease with the default onboarding checklist.
// Unit and tenant must exist on the same site.
func (s *LeaseService) Create(ctx context.Context, siteID string, input repository.CreateLeaseInput) (*repository.Lease, error) {
	if input.UnitID == "" || input.TenantID == "" {
		return nil, repository.ErrInvalidInput
	}
	if !input.EndsOn.After(input.StartsOn) {
		return nil, fmt.Errorf("%w: lease must end after it starts", repository.ErrInvalidInput)
	}
	if input.RentCents < 0 || input.DepositCents < 0 {
		return nil, fmt.Errorf("%w: negative amounts", repository.ErrInvalidInput)
	}
	if _, err := s.Units.GetByID(ctx, siteID, input.UnitID); err != nil {
		return nil, err
	}
	if _, err := s.Tenants.GetByID(ctx, siteID, input.TenantID); err != nil {
		return nil, err
	}
	return s.Leases.Create(ctx, siteID, input)
}

// Activate moves a draft lease to active. A unit carries at most one
// active lease; a second activation is a conflict.
func (s *LeaseService) Activate(ctx context.Context, siteID, leaseID string) (*repository.Lease, error) {
	lease, err := s.Leases.GetByID(ctx, siteID, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.Status != repository.LeaseDraft {
		return nil, fmt.Errorf("%w: only draft leases can be activated (status %s)", repository.ErrConflict, lease.Status)
	}

	if existing, err := s.Leases.ActiveForUnit(ctx, siteID, lease.UnitID); err == nil {
		return nil, fmt.Errorf("%w: unit already has active lease %s", repository.ErrConflict, existing.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.Leases.SetStatus(ctx, siteID, leaseID, repository.LeaseActive); err != nil {
		return nil, err
	}
	if err := s.Units.SetStatus(ctx, siteID, lease.UnitID, repository.UnitOccupied); err != nil {
		logger.From(ctx).Warn("unit occupancy sync failed",
			logger.UnitID(lease.UnitID), logger.LeaseID(leaseID), logger.Err(err))
	}

	logger.From(ctx).Info("lease activated", logger.LeaseID(leaseID), logger.UnitID(lease.UnitID))
	return s.Leases.GetByID(ctx, siteID, leaseID)
}

// Close ends or terminates an active lease and frees the unit.
// status must be "ended" or "terminated".
func (s *LeaseService) Close(ctx context.Context, siteID, leaseID, status string) (*repository.Lease, error) {
	if status != repository.LeaseEnded && status != repository.LeaseTerminated {
		return nil, fmt.Errorf("%w: invalid closing status %q", repository.ErrInvalidInput, status)
	}
	lease, err := s.Leases.GetByID(ctx, siteID, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.Status != repository.LeaseActive {
		return nil, fmt.Errorf("%w: only active leases can be closed (status %s)", repository.ErrConflict, lease.Status)
	}

	if err := s.Leases.SetStatus(ctx, siteID, leaseID, status); err != nil {
		return nil, err
	}
	if err := s.Units.SetStatus(ctx, siteID, lease.UnitID, repository.UnitVacant); err != nil {
		logger.From(ctx).Warn("unit occupancy sync failed",
			logger.UnitID(lease.UnitID), logger.LeaseID(leaseID), logger.Err(err))
	}

	logger.From(ctx).Info("lease closed",
		logger.LeaseID(leaseID), logger.String("closing_status", status))
	return s.Leases.GetByID(ctx, siteID, leaseID)
}

// Update edits term and amounts. Only drafts are editable; an active
// lease changes through its lifecycle, not in place.
func (s *LeaseService) Update(ctx context.Context, siteID, leaseID string, input repository.UpdateLeaseInput) (*repository.Lease, error) {
	lease, err := s.Leases.GetByID(ctx, siteID, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.Status != repository.LeaseDraft {
		return nil, fmt.Errorf("%w: only draft leases are editable", repository.ErrConflict)
	}
	if err := s.Leases.Update(ctx, siteID, leaseID, input); err != nil {
		return nil, err
	}
	return s.Leases.GetByID(ctx, siteID, leaseID)
}

// SetChecklistItem marks one onboarding step done or not done.
func (s *LeaseService) SetChecklistItem(ctx context.Context, siteID, leaseID, key string, done bool) (*repository.Lease, error) {
	lease, err := s.Leases.GetByID(ctx, siteID, leaseID)
	if err != nil {
		return nil, err
	}
	found := false
	now := time.Now().UTC()
	for i := range lease.Checklist {
		if lease.Checklist[i].Key != key {
			continue
		}
		found = true
		lease.Checklist[i].Done = done
		if done {
			lease.Checklist[i].CompletedAt = &now
		} else {
			lease.Checklist[i].CompletedAt = nil
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: unknown checklist item %q", repository.ErrInvalidInput, key)
	}
	if err := s.Leases.SetChecklist(ctx, siteID, leaseID, lease.Checklist); err != nil {
		return nil, err
	}
	return lease, nil
}

// Delete removes a lease. Drafts only; history is never deleted.
func (s *LeaseService) Delete(ctx context.Context, siteID, leaseID string) error {
	lease, err := s.Leases.GetByID(ctx, siteID, leaseID)
	if err != nil {
		return err
	}
	if lease.Status != repository.LeaseDraft {
		return fmt.Errorf("%w: only draft leases can be deleted", repository.ErrConflict)
	}
	return s.Leases.Delete(ctx, siteID, leaseID)
}
