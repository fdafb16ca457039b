package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
)

// LeadController exposes the staff-facing lead pipeline. Public intake
// lives on the PublicController.
type LeadController struct {
	Leads   repository.LeadRepository
	Service *services.LeadService
}

// List returns leads filtered by pipeline status or property.
// GET /api/leads
func (c *LeadController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	leads, err := c.Leads.List(r.Context(), SiteFrom(r.Context()).ID, repository.ListLeadsFilter{
		Status:     r.URL.Query().Get("status"),
		PropertyID: r.URL.Query().Get("property_id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, leads)
}

// Get returns a single lead with any screening result.
// GET /api/leads/{id}
func (c *LeadController) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := c.Leads.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lead)
}

type leadStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus moves a lead along the pipeline.
// POST /api/leads/{id}/status
func (c *LeadController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req leadStatusRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	lead, err := c.Service.SetStatus(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lead)
}

// Screen requests a screening for the lead via the configured provider.
// POST /api/leads/{id}/screen
func (c *LeadController) Screen(w http.ResponseWriter, r *http.Request) {
	lead, err := c.Service.RequestScreening(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, lead)
}

// Delete removes a lead.
// DELETE /api/leads/{id}
func (c *LeadController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Leads.Delete(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
