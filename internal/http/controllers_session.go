package http

import (
	"mime"
	"net/http"
	"time"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// SessionController handles login, logout, whoami and active-site
// switching for the staff dashboard.
type SessionController struct {
	Auth     *auth.Service
	Resolver *auth.Resolver

	CookieName   string
	CookieDomain string
	SameSite     string
	Secure       bool
	TTL          time.Duration
}

// NewSessionController wires the controller from configuration. The
// session TTL is validated at config load, so the parse cannot fail here.
func NewSessionController(svc *auth.Service, resolver *auth.Resolver, cfg *config.Config) *SessionController {
	ttl, _ := cfg.SessionTTL()
	return &SessionController{
		Auth:         svc,
		Resolver:     resolver,
		CookieName:   cfg.Session.CookieName,
		CookieDomain: cfg.Session.Domain,
		SameSite:     cfg.Session.SameSite,
		Secure:       cfg.Session.Secure,
		TTL:          ttl,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User *repository.User `json:"user"`
	Site *repository.Site `json:"site"`
}

// Login authenticates against the site the request addresses. JSON
// clients get the session envelope back; a form post from the login
// page is redirected to the dashboard instead.
// POST /api/session/login
func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	fromForm := isFormPost(r)
	if fromForm {
		if err := r.ParseForm(); err != nil {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("malformed form body"))
			return
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	} else if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email and password are required"))
		return
	}

	site := SiteFrom(r.Context())
	sess, err := c.Auth.Login(r.Context(), site.ID, req.Email, req.Password)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	http.SetCookie(w, helpers.BuildSessionCookie(
		c.CookieName, sess.Cookie, c.CookieDomain, c.SameSite, c.Secure, c.TTL))
	w.Header().Set("Cache-Control", "no-store")
	if fromForm {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	helpers.WriteData(w, http.StatusOK, sessionResponse{User: sess.User, Site: sess.Site})
}

func isFormPost(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/x-www-form-urlencoded"
}

// Logout erases the session cookie. Always succeeds.
// POST /api/session/logout
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, helpers.BuildDeletionCookie(c.CookieName, c.CookieDomain, c.SameSite, c.Secure))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user and active site.
// GET /api/session/me
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	helpers.WriteData(w, http.StatusOK, sessionResponse{
		User: UserFrom(r.Context()),
		Site: SiteFrom(r.Context()),
	})
}

// Sites lists the sites the user may switch to.
// GET /api/session/sites
func (c *SessionController) Sites(w http.ResponseWriter, r *http.Request) {
	sites, err := c.Auth.Sites(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, sites)
}

type switchRequest struct {
	SiteID string `json:"site_id"`
}

// Switch re-binds the session to another site. On refusal the current
// cookie is left untouched.
// POST /api/session/switch
func (c *SessionController) Switch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if req.SiteID == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("site_id is required"))
		return
	}

	sess, err := c.Auth.SwitchSite(r.Context(), UserFrom(r.Context()).ID, req.SiteID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	logger.From(r.Context()).Info("active site switched", logger.SiteID(sess.Site.ID))
	http.SetCookie(w, helpers.BuildSessionCookie(
		c.CookieName, sess.Cookie, c.CookieDomain, c.SameSite, c.Secure, c.TTL))
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteData(w, http.StatusOK, sessionResponse{User: sess.User, Site: sess.Site})
}
