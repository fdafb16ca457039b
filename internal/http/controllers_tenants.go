package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
)

// TenantController exposes the tenant CRUD surface of the staff API.
type TenantController struct {
	Tenants repository.TenantRepository
	Leases  repository.LeaseRepository
}

// List returns tenants, optionally filtered by a name/email search term.
// GET /api/tenants
func (c *TenantController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	tenants, err := c.Tenants.List(r.Context(), SiteFrom(r.Context()).ID, repository.ListTenantsFilter{
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, tenants)
}

// Get returns a single tenant.
// GET /api/tenants/{id}
func (c *TenantController) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := c.Tenants.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, tenant)
}

type tenantRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Create adds a tenant record.
// POST /api/tenants
func (c *TenantController) Create(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("first_name and last_name are required"))
		return
	}
	tenant, err := c.Tenants.Create(r.Context(), SiteFrom(r.Context()).ID, repository.CreateTenantInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, tenant)
}

type tenantUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// Update patches a tenant; only fields present in the body change.
// PATCH /api/tenants/{id}
func (c *TenantController) Update(w http.ResponseWriter, r *http.Request) {
	var req tenantUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &lowered
	}

	siteID := SiteFrom(r.Context()).ID
	id := chi.URLParam(r, "id")
	err := c.Tenants.Update(r.Context(), siteID, id, repository.UpdateTenantInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	tenant, err := c.Tenants.GetByID(r.Context(), siteID, id)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, tenant)
}

// Delete removes a tenant. Refused while the tenant holds any lease.
// DELETE /api/tenants/{id}
func (c *TenantController) Delete(w http.ResponseWriter, r *http.Request) {
	siteID := SiteFrom(r.Context()).ID
	id := chi.URLParam(r, "id")

	leases, err := c.Leases.List(r.Context(), siteID, repository.ListLeasesFilter{TenantID: id, Limit: 1})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	if len(leases) > 0 {
		helpers.WriteError(w, helpers.ErrConflict.WithDetail("tenant has leases on record"))
		return
	}

	if err := c.Tenants.Delete(r.Context(), siteID, id); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
