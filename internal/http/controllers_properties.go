package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// PropertyController exposes the property CRUD surface of the staff API.
type PropertyController struct {
	Properties repository.PropertyRepository
	Service    *services.PropertyService
}

// List returns the site's properties, filtered and paginated.
// GET /api/properties
func (c *PropertyController) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filter := repository.ListPropertiesFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	props, err := c.Properties.List(r.Context(), SiteFrom(r.Context()).ID, filter)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, props)
}

// Get returns a single property.
// GET /api/properties/{id}
func (c *PropertyController) Get(w http.ResponseWriter, r *http.Request) {
	prop, err := c.Properties.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, prop)
}

type propertyRequest struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	City       string   `json:"city"`
	Region     string   `json:"region"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Kind       string   `json:"kind"`
}

// Create adds a property. Missing coordinates are filled by the
// geocoder when one is configured.
// POST /api/properties
func (c *PropertyController) Create(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	prop, err := c.Service.Create(r.Context(), SiteFrom(r.Context()).ID, repository.CreatePropertyInput{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Kind:       req.Kind,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("property created",
		logger.Component("http"), logger.ID(prop.ID))
	helpers.WriteData(w, http.StatusCreated, prop)
}

type propertyUpdateRequest struct {
	Name       *string  `json:"name"`
	Address    *string  `json:"address"`
	City       *string  `json:"city"`
	Region     *string  `json:"region"`
	PostalCode *string  `json:"postal_code"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Kind       *string  `json:"kind"`
	Status     *string  `json:"status"`
}

// Update patches a property; only fields present in the body change.
// PATCH /api/properties/{id}
func (c *PropertyController) Update(w http.ResponseWriter, r *http.Request) {
	var req propertyUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	prop, err := c.Service.Update(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"),
		repository.UpdatePropertyInput{
			Name:       req.Name,
			Address:    req.Address,
			City:       req.City,
			Region:     req.Region,
			PostalCode: req.PostalCode,
			Lat:        req.Lat,
			Lng:        req.Lng,
			Kind:       req.Kind,
			Status:     req.Status,
		})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, prop)
}

// Delete removes a property, its units and their stored media. Refused
// while any unit has an active lease.
// DELETE /api/properties/{id}
func (c *PropertyController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.Service.Delete(r.Context(), SiteFrom(r.Context()).ID, id); err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("property deleted",
		logger.Component("http"), logger.ID(id))
	w.WriteHeader(http.StatusNoContent)
}
