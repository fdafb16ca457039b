package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/email"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// WorkOrderService validates work orders and fires the urgent
// notification.
type WorkOrderService struct {
	WorkOrders repository.WorkOrderRepository
	Properties repository.PropertyRepository
	Units      repository.UnitRepository
	Notifier   *email.Notifier
}

// Create opens a work order against a property, optionally pinned to a
// unit of that property.
func (s *WorkOrderService) Create(ctx context.Context, site *repository.Site, input repository.CreateWorkOrderInput) (*repository.WorkOrder, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", repository.ErrInvalidInput)
	}
	if _, err := s.Properties.GetByID(ctx, site.ID, input.PropertyID); err != nil {
		return nil, err
	}
	if input.UnitID != nil {
		unit, err := s.Units.GetByID(ctx, site.ID, *input.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.PropertyID != input.PropertyID {
			return nil, fmt.Errorf("%w: unit belongs to another property", repository.ErrInvalidInput)
		}
	}
	switch input.Priority {
	case "":
		input.Priority = repository.PriorityNormal
	case repository.PriorityLow, repository.PriorityNormal, repository.PriorityHigh, repository.PriorityUrgent:
	default:
		return nil, fmt.Errorf("%w: invalid priority %q", repository.ErrInvalidInput, input.Priority)
	}

	wo, err := s.WorkOrders.Create(ctx, site.ID, input)
	if err != nil {
		return nil, err
	}
	if wo.Priority == repository.PriorityUrgent && s.Notifier != nil {
		s.Notifier.UrgentWorkOrder(site.Name, wo)
	}
	logger.From(ctx).Info("work order opened",
		logger.String("work_order_id", wo.ID), logger.String("priority", wo.Priority))
	return wo, nil
}

// SetStatus advances a work order: open → in_progress → done, or
// cancelled from any non-done state.
func (s *WorkOrderService) SetStatus(ctx context.Context, siteID, id, status string) (*repository.WorkOrder, error) {
	switch status {
	case repository.WorkOrderOpen, repository.WorkOrderInProgress,
		repository.WorkOrderDone, repository.WorkOrderCancelled:
	default:
		return nil, fmt.Errorf("%w: invalid status %q", repository.ErrInvalidInput, status)
	}
	wo, err := s.WorkOrders.GetByID(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	if wo.Status == repository.WorkOrderDone && status != repository.WorkOrderDone {
		return nil, fmt.Errorf("%w: work order already done", repository.ErrConflict)
	}
	if err := s.WorkOrders.Update(ctx, siteID, id, repository.UpdateWorkOrderInput{Status: &status}); err != nil {
		return nil, err
	}
	return s.WorkOrders.GetByID(ctx, siteID, id)
}
