package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/security/password"
)

// AdminController exposes site administration: sites, staff users,
// memberships and API tokens. Every route here sits behind the admin
// role check in the router.
type AdminController struct {
	Sites       repository.SiteRepository
	Users       repository.UserRepository
	Memberships repository.MembershipRepository
	Tokens      repository.APITokenRepository
	Auth        *auth.Service
}

// ListSites returns every site of the deployment.
// GET /api/admin/sites
func (c *AdminController) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := c.Sites.List(r.Context())
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, sites)
}

type siteRequest struct {
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	CustomDomain string         `json:"custom_domain"`
	Theme        map[string]any `json:"theme"`
}

// CreateSite provisions a new site. Slugs are unique per deployment.
// POST /api/admin/sites
func (c *AdminController) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if req.Slug == "" || strings.TrimSpace(req.Name) == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("slug and name are required"))
		return
	}

	site, err := c.Sites.Create(r.Context(), repository.CreateSiteInput{
		Slug:         req.Slug,
		Name:         strings.TrimSpace(req.Name),
		CustomDomain: strings.ToLower(strings.TrimSpace(req.CustomDomain)),
		Theme:        req.Theme,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	// The creating admin gets access to the new site right away.
	if err := c.Memberships.Grant(r.Context(), UserFrom(r.Context()).ID, site.ID); err != nil {
		logger.From(r.Context()).Warn("creator membership grant failed",
			logger.Component("http"), logger.SiteID(site.ID), logger.Err(err))
	}

	logger.From(r.Context()).Info("site created",
		logger.Component("http"), logger.SiteID(site.ID), logger.String("slug", site.Slug))
	helpers.WriteData(w, http.StatusCreated, site)
}

type siteUpdateRequest struct {
	Name         *string        `json:"name"`
	CustomDomain *string        `json:"custom_domain"`
	Theme        map[string]any `json:"theme"`
}

// UpdateSite patches a site's name, custom domain or theme.
// PATCH /api/admin/sites/{id}
func (c *AdminController) UpdateSite(w http.ResponseWriter, r *http.Request) {
	var req siteUpdateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.CustomDomain != nil {
		lowered := strings.ToLower(strings.TrimSpace(*req.CustomDomain))
		req.CustomDomain = &lowered
	}

	id := chi.URLParam(r, "id")
	err := c.Sites.Update(r.Context(), id, repository.UpdateSiteInput{
		Name:         req.Name,
		CustomDomain: req.CustomDomain,
		Theme:        req.Theme,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	site, err := c.Sites.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, site)
}

type userRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	SiteIDs  []string `json:"site_ids"`
}

// CreateUser registers a staff user and grants the listed memberships.
// POST /api/admin/users
func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email and password are required"))
		return
	}
	role := repository.Role(req.Role)
	if !role.Valid() {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("unknown role"))
		return
	}

	hash, err := password.Hash(password.Default, req.Password)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	user, err := c.Users.Create(r.Context(), repository.CreateUserInput{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	for _, siteID := range req.SiteIDs {
		if err := c.Memberships.Grant(r.Context(), user.ID, siteID); err != nil {
			logger.From(r.Context()).Warn("membership grant failed",
				logger.Component("http"), logger.UserID(user.ID), logger.SiteID(siteID), logger.Err(err))
		}
	}
	helpers.WriteData(w, http.StatusCreated, user)
}

type membershipRequest struct {
	UserID string `json:"user_id"`
	SiteID string `json:"site_id"`
}

// GrantMembership gives a user access to a site. Idempotent.
// POST /api/admin/memberships
func (c *AdminController) GrantMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.UserID == "" || req.SiteID == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("user_id and site_id are required"))
		return
	}
	if _, err := c.Users.GetByID(r.Context(), req.UserID); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if _, err := c.Sites.GetByID(r.Context(), req.SiteID); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if err := c.Memberships.Grant(r.Context(), req.UserID, req.SiteID); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeMembership removes a user's access to a site.
// DELETE /api/admin/memberships
func (c *AdminController) RevokeMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if err := c.Memberships.Revoke(r.Context(), req.UserID, req.SiteID); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTokens returns the active site's API tokens, hashes omitted.
// GET /api/admin/tokens
func (c *AdminController) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := c.Tokens.ListBySite(r.Context(), SiteFrom(r.Context()).ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, tokens)
}

type mintTokenRequest struct {
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type mintTokenResponse struct {
	// Token is shown exactly once; only its hash is stored.
	Token  string               `json:"token"`
	Record *repository.APIToken `json:"record"`
}

// MintToken creates an API token for the active site and returns the
// plaintext a single time.
// POST /api/admin/tokens
func (c *AdminController) MintToken(w http.ResponseWriter, r *http.Request) {
	var req mintTokenRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("label is required"))
		return
	}

	plaintext, rec, err := c.Auth.MintAPIToken(r.Context(), SiteFrom(r.Context()), strings.TrimSpace(req.Label), req.ExpiresAt)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("api token minted",
		logger.Component("http"), logger.TokenID(rec.ID))
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteData(w, http.StatusCreated, mintTokenResponse{Token: plaintext, Record: rec})
}

// RevokeToken deactivates an API token. Revocation is permanent.
// DELETE /api/admin/tokens/{id}
func (c *AdminController) RevokeToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.Tokens.Revoke(r.Context(), SiteFrom(r.Context()).ID, id); err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("api token revoked",
		logger.Component("http"), logger.TokenID(id))
	w.WriteHeader(http.StatusNoContent)
}
