package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// UnitController exposes the unit CRUD surface of the staff API.
type UnitController struct {
	Units      repository.UnitRepository
	Properties repository.PropertyRepository
	Leases     repository.LeaseRepository
	Media      *services.MediaService
}

// List returns units, optionally narrowed to a property or status.
// GET /api/units
func (c *UnitController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filter := repository.ListUnitsFilter{
		PropertyID: r.URL.Query().Get("property_id"),
		Status:     r.URL.Query().Get("status"),
		Limit:      limit,
		Offset:     offset,
	}
	units, err := c.Units.List(r.Context(), SiteFrom(r.Context()).ID, filter)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, units)
}

// Get returns a single unit.
// GET /api/units/{id}
func (c *UnitController) Get(w http.ResponseWriter, r *http.Request) {
	unit, err := c.Units.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, unit)
}

type unitRequest struct {
	PropertyID string  `json:"property_id"`
	Label      string  `json:"label"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  float64 `json:"bathrooms"`
	Sqft       int     `json:"sqft"`
	RentCents  int64   `json:"rent_cents"`
}

// Create adds a unit under an existing property.
// POST /api/units
func (c *UnitController) Create(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.PropertyID == "" || req.Label == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("property_id and label are required"))
		return
	}

	siteID := SiteFrom(r.Context()).ID
	if _, err := c.Properties.GetByID(r.Context(), siteID, req.PropertyID); err != nil {
		helpers.WriteError(w, err)
		return
	}

	unit, err := c.Units.Create(r.Context(), siteID, repository.CreateUnitInput{
		PropertyID: req.PropertyID,
		Label:      req.Label,
		Bedrooms:   req.Bedrooms,
		Bathrooms:  req.Bathrooms,
		Sqft:       req.Sqft,
		RentCents:  req.RentCents,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, unit)
}

type unitUpdateRequest struct {
	Label     *string  `json:"label"`
	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`
	Sqft      *int     `json:"sqft"`
	RentCents *int64   `json:"rent_cents"`
	Status    *string  `json:"status"`
}

// Update patches a unit; only fields present in the body change.
// PATCH /api/units/{id}
func (c *UnitController) Update(w http.ResponseWriter, r *http.Request) {
	var req unitUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case repository.UnitVacant, repository.UnitListed, repository.UnitOccupied:
		default:
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("unknown unit status"))
			return
		}
	}

	siteID := SiteFrom(r.Context()).ID
	id := chi.URLParam(r, "id")
	err := c.Units.Update(r.Context(), siteID, id, repository.UpdateUnitInput{
		Label:     req.Label,
		Bedrooms:  req.Bedrooms,
		Bathrooms: req.Bathrooms,
		Sqft:      req.Sqft,
		RentCents: req.RentCents,
		Status:    req.Status,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	unit, err := c.Units.GetByID(r.Context(), siteID, id)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, unit)
}

// Delete removes a unit and its stored media. Refused while the unit
// has an active lease.
// DELETE /api/units/{id}
func (c *UnitController) Delete(w http.ResponseWriter, r *http.Request) {
	siteID := SiteFrom(r.Context()).ID
	id := chi.URLParam(r, "id")

	if _, err := c.Leases.ActiveForUnit(r.Context(), siteID, id); err == nil {
		helpers.WriteError(w, repository.ErrConflict)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		helpers.WriteError(w, err)
		return
	}

	if err := c.Media.PurgeEntity(r.Context(), siteID, repository.EntityUnit, id); err != nil {
		logger.From(r.Context()).Warn("unit media purge incomplete",
			logger.Component("http"), logger.ID(id), logger.Err(err))
	}
	if err := c.Units.Delete(r.Context(), siteID, id); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
