package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/email"
	"github.com/atrium-pm/atrium/internal/integrations"
	"github.com/atrium-pm/atrium/internal/metrics"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/util"
)

// LeadService handles the public intake form and the staff-side lead
// pipeline.
type LeadService struct {
	Leads      repository.LeadRepository
	Properties repository.PropertyRepository
	Notifier   *email.Notifier
	Screening  integrations.ScreeningProvider
}

// Intake accepts a submission from the public site. A referenced
// property must belong to the same site; a bogus reference is dropped
// rather than failing the submission.
func (s *LeadService) Intake(ctx context.Context, site *repository.Site, input repository.CreateLeadInput) (*repository.Lead, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Message = strings.TrimSpace(input.Message)

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", repository.ErrInvalidInput)
	}
	if input.Email == "" && input.Phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", repository.ErrInvalidInput)
	}
	if input.Email != "" && !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email", repository.ErrInvalidInput)
	}

	if input.PropertyID != nil {
		if _, err := s.Properties.GetByID(ctx, site.ID, *input.PropertyID); err != nil {
			logger.From(ctx).Info("lead referenced unknown property, dropping reference",
				logger.PropertyID(*input.PropertyID))
			input.PropertyID = nil
		}
	}

	lead, err := s.Leads.Create(ctx, site.ID, input)
	if err != nil {
		return nil, err
	}

	metrics.LeadsCreated.Inc()
	logger.From(ctx).Info("lead received",
		logger.LeadID(lead.ID), logger.Email(util.MaskEmail(lead.Email)))
	if s.Notifier != nil {
		s.Notifier.LeadReceived(site.Name, lead)
	}
	return lead, nil
}

// SetStatus moves a lead along the pipeline: new, contacted,
// screening, approved, rejected.
func (s *LeadService) SetStatus(ctx context.Context, siteID, leadID, status string) (*repository.Lead, error) {
	switch status {
	case repository.LeadNew, repository.LeadContacted, repository.LeadScreening,
		repository.LeadApproved, repository.LeadRejected:
	default:
		return nil, fmt.Errorf("%w: invalid lead status %q", repository.ErrInvalidInput, status)
	}
	if err := s.Leads.SetStatus(ctx, siteID, leadID, status); err != nil {
		return nil, err
	}
	return s.Leads.GetByID(ctx, siteID, leadID)
}

// RequestScreening kicks off an applicant check and stores the pending
// result on the lead.
func (s *LeadService) RequestScreening(ctx context.Context, siteID, leadID string) (*repository.Lead, error) {
	lead, err := s.Leads.GetByID(ctx, siteID, leadID)
	if err != nil {
		return nil, err
	}
	scr, err := s.Screening.RequestScreening(ctx, lead)
	if err != nil {
		return nil, err
	}
	if err := s.Leads.SetScreening(ctx, siteID, leadID, scr); err != nil {
		return nil, err
	}
	if err := s.Leads.SetStatus(ctx, siteID, leadID, repository.LeadScreening); err != nil {
		return nil, err
	}
	return s.Leads.GetByID(ctx, siteID, leadID)
}
