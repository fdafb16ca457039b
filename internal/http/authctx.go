package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
)

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxSite
	ctxAPIToken
)

// UserFrom returns the authenticated staff user, or nil.
func UserFrom(ctx context.Context) *repository.User {
	u, _ := ctx.Value(ctxUser).(*repository.User)
	return u
}

// SiteFrom returns the site the request is scoped to. Never nil inside
// handlers mounted behind RequireSession, RequireBearer or the site
// resolver.
func SiteFrom(ctx context.Context) *repository.Site {
	s, _ := ctx.Value(ctxSite).(*repository.Site)
	return s
}

// APITokenFrom returns the validated machine token, or nil for
// session-authenticated requests.
func APITokenFrom(ctx context.Context) *repository.APIToken {
	t, _ := ctx.Value(ctxAPIToken).(*repository.APIToken)
	return t
}

func withUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func withSite(ctx context.Context, s *repository.Site) context.Context {
	return context.WithValue(ctx, ctxSite, s)
}

// RequireSession authenticates through the session cookie. Any decode
// or lookup failure is a clean 401, never a 500. A session whose
// active site was revoked underneath it is re-anchored to another site
// the user belongs to, with the cookie reissued on the response.
func RequireSession(svc *auth.Service, codec *sessioncookie.Codec, cfg *config.Config) func(http.Handler) http.Handler {
	ttl, _ := cfg.SessionTTL()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(cfg.Session.CookieName)
			if err != nil {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}
			claims := codec.Decode(ck.Value)
			if claims == nil {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}
			user, site, err := svc.CurrentUser(r.Context(), claims)
			if errors.Is(err, repository.ErrUnauthorized) {
				sess, rerr := svc.Rebind(r.Context(), claims)
				if rerr != nil {
					helpers.WriteError(w, helpers.ErrUnauthorized)
					return
				}
				http.SetCookie(w, helpers.BuildSessionCookie(
					cfg.Session.CookieName, sess.Cookie, cfg.Session.Domain,
					cfg.Session.SameSite, cfg.Session.Secure, ttl))
				user, site = sess.User, sess.Site
			} else if err != nil {
				helpers.WriteError(w, err)
				return
			}

			ctx := withUser(r.Context(), user)
			ctx = withSite(ctx, site)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.UserID(user.ID), logger.SiteID(site.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBearer authenticates machine clients by API token and scopes
// the request to the token's site.
func RequireBearer(svc *auth.Service, sites repository.SiteRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(raw, prefix) {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}
			tok, err := svc.ValidateAPIToken(r.Context(), raw[len(prefix):])
			if err != nil {
				helpers.WriteError(w, err)
				return
			}
			site, err := sites.GetByID(r.Context(), tok.SiteID)
			if err != nil {
				helpers.WriteError(w, helpers.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxAPIToken, tok)
			ctx = withSite(ctx, site)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.TokenID(tok.ID), logger.SiteID(site.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireDeleteRole gates hard deletes, which staff accounts lack.
func RequireDeleteRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFrom(r.Context())
		if u == nil || !u.Role.CanDelete() {
			helpers.WriteError(w, helpers.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminRole gates deployment administration: sites, users,
// memberships and API tokens.
func RequireAdminRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFrom(r.Context())
		if u == nil || u.Role != repository.RoleAdmin {
			helpers.WriteError(w, helpers.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithResolvedSite scopes anonymous public requests to a site using
// the slug override or the request host.
func WithResolvedSite(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := r.Header.Get("X-Site")
			if slug == "" {
				slug = r.URL.Query().Get("site")
			}
			site, err := resolver.Resolve(r.Context(), slug, r.Host)
			if err != nil {
				helpers.WriteError(w, helpers.ErrNotFound.WithDetail("unknown site"))
				return
			}
			ctx := withSite(r.Context(), site)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.SiteSlug(site.Slug)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
