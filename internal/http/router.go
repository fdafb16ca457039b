// Package http wires the public site surface, the staff API and the
// machine API onto one chi router. Handlers stay thin; domain rules
// live in the services package.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/rate"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

// JSON request bodies are small; uploads get the configured cap.
const jsonBodyLimit = 1 << 20

// Deps bundles everything the router mounts.
type Deps struct {
	Cfg      *config.Config
	Repos    *repos.Repositories
	Auth     *auth.Service
	Resolver *auth.Resolver
	Codec    *sessioncookie.Codec

	Media      *services.MediaService
	Properties *services.PropertyService
	Leases     *services.LeaseService
	Leads      *services.LeadService
	WorkOrders *services.WorkOrderService

	// Limiters are nil when rate limiting is disabled.
	LoginLimiter  rate.Limiter
	IntakeLimiter rate.Limiter

	Registry *prometheus.Registry

	// Ready reports whether backing services answer; /readyz returns
	// 503 when it errors. Nil means always ready.
	Ready func(ctx context.Context) error
}

func limited(h http.Handler, l rate.Limiter, scope string) http.Handler {
	if l == nil {
		return h
	}
	return WithRateLimit(h, l, scope)
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	session := NewSessionController(d.Auth, d.Resolver, d.Cfg)
	admin := &AdminController{
		Sites:       d.Repos.Sites,
		Users:       d.Repos.Users,
		Memberships: d.Repos.Memberships,
		Tokens:      d.Repos.Tokens,
		Auth:        d.Auth,
	}
	properties := &PropertyController{Properties: d.Repos.Properties, Service: d.Properties}
	units := &UnitController{
		Units:      d.Repos.Units,
		Properties: d.Repos.Properties,
		Leases:     d.Repos.Leases,
		Media:      d.Media,
	}
	tenants := &TenantController{Tenants: d.Repos.Tenants, Leases: d.Repos.Leases}
	leases := &LeaseController{Leases: d.Repos.Leases, Service: d.Leases}
	leads := &LeadController{Leads: d.Repos.Leads, Service: d.Leads}
	workOrders := &WorkOrderController{WorkOrders: d.Repos.WorkOrders, Service: d.WorkOrders}
	media := &MediaController{
		Images:       d.Repos.Images,
		Documents:    d.Repos.Documents,
		Service:      d.Media,
		MaxFileBytes: d.Cfg.Uploads.MaxBytes,
	}
	public := &PublicController{Units: d.Repos.Units, Properties: d.Repos.Properties, Leads: d.Leads}

	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(WithRecover)
	r.Use(WithLogging)
	r.Use(WithSecurityHeaders)
	r.Use(func(next http.Handler) http.Handler {
		return WithCORS(next, d.Cfg.Server.CORSAllowedOrigins)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	maxJSON := func(next http.Handler) http.Handler { return WithMaxBody(next, jsonBodyLimit) }
	// The upload cap applies to the file part; the request body gets a
	// bounded allowance on top for the multipart envelope, so a file of
	// exactly the maximum size still goes through.
	maxUpload := func(next http.Handler) http.Handler {
		return WithMaxBody(next, d.Cfg.Uploads.MaxBytes+multipartEnvelopeAllowance)
	}

	// Anonymous site surface, scoped by host or explicit slug.
	r.Route("/public", func(r chi.Router) {
		r.Use(WithResolvedSite(d.Resolver))
		r.Use(maxJSON)
		r.Get("/site", public.Site)
		r.Get("/listings", public.Listings)
		r.Get("/properties/{id}", public.Property)
		r.Get("/images/{id}", media.ServeImage)
		r.Method(http.MethodPost, "/leads",
			limited(http.HandlerFunc(public.Intake), d.IntakeLimiter, "intake"))
	})

	// Staff dashboard API, session-cookie authenticated.
	r.Route("/api", func(r chi.Router) {
		// Login resolves the site like the public surface does; the
		// cookie takes over from there.
		r.Group(func(r chi.Router) {
			r.Use(WithResolvedSite(d.Resolver))
			r.Use(maxJSON)
			r.Method(http.MethodPost, "/session/login",
				limited(http.HandlerFunc(session.Login), d.LoginLimiter, "login"))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(d.Auth, d.Codec, d.Cfg))

			r.With(maxJSON).Route("/session", func(r chi.Router) {
				r.Post("/logout", session.Logout)
				r.Get("/me", session.Me)
				r.Get("/sites", session.Sites)
				r.Post("/switch", session.Switch)
			})

			r.With(maxJSON).Route("/properties", func(r chi.Router) {
				r.Get("/", properties.List)
				r.Post("/", properties.Create)
				r.Get("/{id}", properties.Get)
				r.Patch("/{id}", properties.Update)
				r.With(RequireDeleteRole).Delete("/{id}", properties.Delete)
			})

			r.With(maxJSON).Route("/units", func(r chi.Router) {
				r.Get("/", units.List)
				r.Post("/", units.Create)
				r.Get("/{id}", units.Get)
				r.Patch("/{id}", units.Update)
				r.With(RequireDeleteRole).Delete("/{id}", units.Delete)
			})

			r.With(maxJSON).Route("/tenants", func(r chi.Router) {
				r.Get("/", tenants.List)
				r.Post("/", tenants.Create)
				r.Get("/{id}", tenants.Get)
				r.Patch("/{id}", tenants.Update)
				r.With(RequireDeleteRole).Delete("/{id}", tenants.Delete)
			})

			r.With(maxJSON).Route("/leases", func(r chi.Router) {
				r.Get("/", leases.List)
				r.Post("/", leases.Create)
				r.Get("/{id}", leases.Get)
				r.Patch("/{id}", leases.Update)
				r.Post("/{id}/activate", leases.Activate)
				r.Post("/{id}/close", leases.Close)
				r.Post("/{id}/checklist", leases.Checklist)
				r.With(RequireDeleteRole).Delete("/{id}", leases.Delete)
			})

			r.With(maxJSON).Route("/leads", func(r chi.Router) {
				r.Get("/", leads.List)
				r.Get("/{id}", leads.Get)
				r.Post("/{id}/status", leads.SetStatus)
				r.Post("/{id}/screen", leads.Screen)
				r.With(RequireDeleteRole).Delete("/{id}", leads.Delete)
			})

			r.With(maxJSON).Route("/work-orders", func(r chi.Router) {
				r.Get("/", workOrders.List)
				r.Post("/", workOrders.Create)
				r.Get("/{id}", workOrders.Get)
				r.Patch("/{id}", workOrders.Update)
				r.Post("/{id}/status", workOrders.SetStatus)
				r.With(RequireDeleteRole).Delete("/{id}", workOrders.Delete)
			})

			r.Route("/{entityType}/{entityID}", func(r chi.Router) {
				r.Get("/images", media.ListImages)
				r.With(maxUpload).Post("/images", media.UploadImage)
				r.With(maxJSON).Post("/images/reorder", media.ReorderImages)
				r.Get("/documents", media.ListDocuments)
				r.With(maxUpload).Post("/documents", media.UploadDocument)
			})
			r.Get("/images/{id}", media.ServeImage)
			r.With(RequireDeleteRole).Delete("/images/{id}", media.DeleteImage)
			r.Get("/documents/{id}/url", media.DocumentURL)
			r.Get("/documents/{id}/download", media.DownloadDocument)
			r.With(RequireDeleteRole).Delete("/documents/{id}", media.DeleteDocument)

			r.With(maxJSON).Route("/admin", func(r chi.Router) {
				r.Use(RequireAdminRole)
				r.Get("/sites", admin.ListSites)
				r.Post("/sites", admin.CreateSite)
				r.Patch("/sites/{id}", admin.UpdateSite)
				r.Post("/users", admin.CreateUser)
				r.Post("/memberships", admin.GrantMembership)
				r.Delete("/memberships", admin.RevokeMembership)
				r.Get("/tokens", admin.ListTokens)
				r.Post("/tokens", admin.MintToken)
				r.Delete("/tokens/{id}", admin.RevokeToken)
			})
		})
	})

	// Machine API, bearer-token authenticated and read-mostly. Lead
	// intake is the one write external integrations get.
	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireBearer(d.Auth, d.Repos.Sites))
		r.Use(maxJSON)
		r.Get("/listings", public.Listings)
		r.Get("/properties/{id}", public.Property)
		r.Get("/images/{id}", media.ServeImage)
		r.Post("/leads", public.Intake)
	})

	return r
}
