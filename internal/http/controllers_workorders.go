package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
)

// WorkOrderController exposes the maintenance work order surface.
type WorkOrderController struct {
	WorkOrders repository.WorkOrderRepository
	Service    *services.WorkOrderService
}

// List returns work orders filtered by property, unit, status or priority.
// GET /api/work-orders
func (c *WorkOrderController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	orders, err := c.WorkOrders.List(r.Context(), SiteFrom(r.Context()).ID, repository.ListWorkOrdersFilter{
		PropertyID: r.URL.Query().Get("property_id"),
		UnitID:     r.URL.Query().Get("unit_id"),
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, orders)
}

// Get returns a single work order.
// GET /api/work-orders/{id}
func (c *WorkOrderController) Get(w http.ResponseWriter, r *http.Request) {
	order, err := c.WorkOrders.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, order)
}

type workOrderRequest struct {
	PropertyID  string  `json:"property_id"`
	UnitID      *string `json:"unit_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
}

// Create opens a work order. Urgent priority triggers a notification.
// POST /api/work-orders
func (c *WorkOrderController) Create(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	order, err := c.Service.Create(r.Context(), SiteFrom(r.Context()), repository.CreateWorkOrderInput{
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, order)
}

type workOrderUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

// Update patches a work order's descriptive fields. Status moves
// through SetStatus so transition rules apply.
// PATCH /api/work-orders/{id}
func (c *WorkOrderController) Update(w http.ResponseWriter, r *http.Request) {
	var req workOrderUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.Priority != nil {
		switch *req.Priority {
		case repository.PriorityLow, repository.PriorityNormal, repository.PriorityHigh, repository.PriorityUrgent:
		default:
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("unknown priority"))
			return
		}
	}

	siteID := SiteFrom(r.Context()).ID
	id := chi.URLParam(r, "id")
	err := c.WorkOrders.Update(r.Context(), siteID, id, repository.UpdateWorkOrderInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	order, err := c.WorkOrders.GetByID(r.Context(), siteID, id)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, order)
}

type workOrderStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus transitions a work order. Done is terminal.
// POST /api/work-orders/{id}/status
func (c *WorkOrderController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req workOrderStatusRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	order, err := c.Service.SetStatus(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, order)
}

// Delete removes a work order.
// DELETE /api/work-orders/{id}
func (c *WorkOrderController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.WorkOrders.Delete(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
