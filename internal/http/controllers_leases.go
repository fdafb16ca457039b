package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// LeaseController exposes the lease lifecycle surface of the staff API.
// All transition rules live in the lease service.
type LeaseController struct {
	Leases  repository.LeaseRepository
	Service *services.LeaseService
}

// List returns leases filtered by unit, tenant or status.
// GET /api/leases
func (c *LeaseController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	leases, err := c.Leases.List(r.Context(), SiteFrom(r.Context()).ID, repository.ListLeasesFilter{
		UnitID:   r.URL.Query().Get("unit_id"),
		TenantID: r.URL.Query().Get("tenant_id"),
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, leases)
}

// Get returns a single lease with its onboarding checklist.
// GET /api/leases/{id}
func (c *LeaseController) Get(w http.ResponseWriter, r *http.Request) {
	lease, err := c.Leases.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lease)
}

type leaseRequest struct {
	UnitID       string `json:"unit_id"`
	TenantID     string `json:"tenant_id"`
	StartsOn     string `json:"starts_on"` // YYYY-MM-DD
	EndsOn       string `json:"ends_on"`
	RentCents    int64  `json:"rent_cents"`
	DepositCents int64  `json:"deposit_cents"`
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// Create drafts a lease with the default onboarding checklist.
// POST /api/leases
func (c *LeaseController) Create(w http.ResponseWriter, r *http.Request) {
	var req leaseRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	starts, err := parseDay(req.StartsOn)
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("starts_on must be YYYY-MM-DD"))
		return
	}
	ends, err := parseDay(req.EndsOn)
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("ends_on must be YYYY-MM-DD"))
		return
	}

	lease, err := c.Service.Create(r.Context(), SiteFrom(r.Context()).ID, repository.CreateLeaseInput{
		UnitID:       req.UnitID,
		TenantID:     req.TenantID,
		StartsOn:     starts,
		EndsOn:       ends,
		RentCents:    req.RentCents,
		DepositCents: req.DepositCents,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, lease)
}

type leaseUpdateRequest struct {
	StartsOn     *string `json:"starts_on"`
	EndsOn       *string `json:"ends_on"`
	RentCents    *int64  `json:"rent_cents"`
	DepositCents *int64  `json:"deposit_cents"`
}

// Update patches a draft lease.
// PATCH /api/leases/{id}
func (c *LeaseController) Update(w http.ResponseWriter, r *http.Request) {
	var req leaseUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}

	var input repository.UpdateLeaseInput
	if req.StartsOn != nil {
		t, err := parseDay(*req.StartsOn)
		if err != nil {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("starts_on must be YYYY-MM-DD"))
			return
		}
		input.StartsOn = &t
	}
	if req.EndsOn != nil {
		t, err := parseDay(*req.EndsOn)
		if err != nil {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("ends_on must be YYYY-MM-DD"))
			return
		}
		input.EndsOn = &t
	}
	input.RentCents = req.RentCents
	input.DepositCents = req.DepositCents

	lease, err := c.Service.Update(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"), input)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lease)
}

// Activate moves a draft lease to active and marks the unit occupied.
// POST /api/leases/{id}/activate
func (c *LeaseController) Activate(w http.ResponseWriter, r *http.Request) {
	lease, err := c.Service.Activate(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("lease activated",
		logger.Component("http"), logger.ID(lease.ID))
	helpers.WriteData(w, http.StatusOK, lease)
}

type leaseCloseRequest struct {
	Status string `json:"status"` // ended or terminated
}

// Close ends or terminates an active lease and frees the unit.
// POST /api/leases/{id}/close
func (c *LeaseController) Close(w http.ResponseWriter, r *http.Request) {
	var req leaseCloseRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	lease, err := c.Service.Close(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lease)
}

type checklistRequest struct {
	Key  string `json:"key"`
	Done bool   `json:"done"`
}

// Checklist toggles one onboarding checklist item.
// POST /api/leases/{id}/checklist
func (c *LeaseController) Checklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	lease, err := c.Service.SetChecklistItem(r.Context(), SiteFrom(r.Context()).ID,
		chi.URLParam(r, "id"), req.Key, req.Done)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lease)
}

// Delete removes a lease. Only drafts may be deleted.
// DELETE /api/leases/{id}
func (c *LeaseController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Delete(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
