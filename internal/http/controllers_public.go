package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
)

// PublicController serves the unauthenticated site surface: listings,
// property pages and the lead intake form. The site is resolved from
// the request host or an explicit slug before these handlers run.
type PublicController struct {
	Units      repository.UnitRepository
	Properties repository.PropertyRepository
	Leads      *services.LeadService
}

// siteView is the public shape of a site; internal fields stay hidden.
type siteView struct {
	Slug  string         `json:"slug"`
	Name  string         `json:"name"`
	Theme map[string]any `json:"theme,omitempty"`
}

// Site returns the resolved site's public profile and theme.
// GET /public/site
func (c *PublicController) Site(w http.ResponseWriter, r *http.Request) {
	site := SiteFrom(r.Context())
	helpers.WriteData(w, http.StatusOK, siteView{
		Slug:  site.Slug,
		Name:  site.Name,
		Theme: site.Theme,
	})
}

// Listings returns listed units joined with their properties.
// GET /public/listings
func (c *PublicController) Listings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	listings, err := c.Units.Listings(r.Context(), SiteFrom(r.Context()).ID, limit, offset)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, listings)
}

// Property returns one active property for its public page. Inactive
// properties are hidden from this surface.
// GET /public/properties/{id}
func (c *PublicController) Property(w http.ResponseWriter, r *http.Request) {
	prop, err := c.Properties.GetByID(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	if prop.Status != repository.PropertyActive {
		helpers.WriteError(w, repository.ErrNotFound)
		return
	}
	helpers.WriteData(w, http.StatusOK, prop)
}

type intakeRequest struct {
	PropertyID *string `json:"property_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Message    string  `json:"message"`
}

type intakeResponse struct {
	ID string `json:"id"`
}

// Intake accepts a prospective renter inquiry. The response carries
// only the lead ID; pipeline state stays internal.
// POST /public/leads
func (c *PublicController) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	lead, err := c.Leads.Intake(r.Context(), SiteFrom(r.Context()), repository.CreateLeadInput{
		PropertyID: req.PropertyID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, intakeResponse{ID: lead.ID})
}
