// Package auth implements session login, active-site switching and
// API token validation on top of the repositories.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
	"github.com/atrium-pm/atrium/internal/security/token"
	"github.com/atrium-pm/atrium/internal/util"
)

// Service wires the auth flows. All methods are safe for concurrent use.
type Service struct {
	users       repository.UserRepository
	sites       repository.SiteRepository
	memberships repository.MembershipRepository
	tokens      repository.APITokenRepository
	codec       *sessioncookie.Codec
	tokenSalt   string
	tokenPrefix string

	now func() time.Time
}

// New returns a Service. The codec signs session cookies; tokenSalt is
// the deployment-wide salt for API token digests.
func New(
	users repository.UserRepository,
	sites repository.SiteRepository,
	memberships repository.MembershipRepository,
	tokens repository.APITokenRepository,
	codec *sessioncookie.Codec,
	tokenSalt, tokenPrefix string,
) *Service {
	return &Service{
		users:       users,
		sites:       sites,
		memberships: memberships,
		tokens:      tokens,
		codec:       codec,
		tokenSalt:   tokenSalt,
		tokenPrefix: tokenPrefix,
		now:         time.Now,
	}
}

// Session is the result of a successful login or site switch.
type Session struct {
	User   *repository.User
	Site   *repository.Site
	Cookie string
}

// Login verifies the credentials and, when the user is a member of the
// site, mints a session bound to it. Wrong email and wrong password
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, siteID, email, plain string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := logger.From(ctx).With(logger.SiteID(siteID), logger.Email(util.MaskEmail(email)))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("login rejected: unknown email")
			return nil, repository.ErrUnauthorized
		}
		return nil, err
	}
	if !password.Verify(plain, u.PasswordHash) {
		log.Info("login rejected: bad password", logger.UserID(u.ID))
		return nil, repository.ErrUnauthorized
	}

	ok, err := s.memberships.HasAccess(ctx, u.ID, siteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("login rejected: not a member", logger.UserID(u.ID))
		return nil, repository.ErrUnauthorized
	}

	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	cookie, err := s.codec.Encode(u.ID, site.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	log.Info("login ok", logger.UserID(u.ID))
	return &Session{User: u, Site: site, Cookie: cookie}, nil
}

// SwitchSite re-binds an authenticated session to another site the
// user is a member of. The original session stays untouched when the
// switch is refused.
func (s *Service) SwitchSite(ctx context.Context, userID, targetSiteID string) (*Session, error) {
	ok, err := s.memberships.HasAccess(ctx, userID, targetSiteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.From(ctx).Info("site switch refused",
			logger.UserID(userID), logger.SiteID(targetSiteID))
		return nil, repository.ErrForbidden
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	site, err := s.sites.GetByID(ctx, targetSiteID)
	if err != nil {
		return nil, err
	}
	cookie, err := s.codec.Encode(u.ID, site.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Site: site, Cookie: cookie}, nil
}

// CurrentUser resolves the session claims to the live user and site
// records, re-checking membership so a revoked grant kills the session
// before its cookie expires.
func (s *Service) CurrentUser(ctx context.Context, claims *sessioncookie.Claims) (*repository.User, *repository.Site, error) {
	if claims == nil {
		return nil, nil, repository.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, repository.ErrUnauthorized
		}
		return nil, nil, err
	}
	ok, err := s.memberships.HasAccess(ctx, u.ID, claims.SiteID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, repository.ErrUnauthorized
	}
	site, err := s.sites.GetByID(ctx, claims.SiteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, repository.ErrUnauthorized
		}
		return nil, nil, err
	}
	return u, site, nil
}

// Rebind re-anchors a session whose active site is gone or no longer
// accessible onto the first site the user still belongs to. A user
// with no memberships left cannot be rebound.
func (s *Service) Rebind(ctx context.Context, claims *sessioncookie.Claims) (*Session, error) {
	if claims == nil {
		return nil, repository.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrUnauthorized
		}
		return nil, err
	}
	sites, err := s.memberships.SitesForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, repository.ErrUnauthorized
	}
	site := &sites[0]
	cookie, err := s.codec.Encode(u.ID, site.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("session re-anchored",
		logger.UserID(u.ID), logger.SiteID(site.ID))
	return &Session{User: u, Site: site, Cookie: cookie}, nil
}

// Sites lists the sites the user may switch to.
func (s *Service) Sites(ctx context.Context, userID string) ([]repository.Site, error) {
	return s.memberships.SitesForUser(ctx, userID)
}

// ValidateAPIToken checks a bearer token and returns the record it
// maps to. Inactive or unknown tokens are ErrUnauthorized; a known but
// expired token is ErrTokenExpired so clients can tell the difference.
func (s *Service) ValidateAPIToken(ctx context.Context, plaintext string) (*repository.APIToken, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" || !strings.HasPrefix(plaintext, s.tokenPrefix+"_") {
		return nil, repository.ErrUnauthorized
	}

	hash := token.DeriveHash(plaintext, s.tokenSalt)
	t, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrUnauthorized
		}
		return nil, err
	}

	now := s.now().UTC()
	if !t.IsActive {
		return nil, repository.ErrUnauthorized
	}
	if !t.Usable(now) {
		return nil, repository.ErrTokenExpired
	}

	// Best effort; a failed touch must not fail the request.
	if err := s.tokens.TouchLastUsed(ctx, t.ID, now); err != nil {
		logger.From(ctx).Debug("token touch failed", logger.TokenID(t.ID), logger.Err(err))
	}
	return t, nil
}

// MintAPIToken generates a plaintext token for the site, stores its
// digest and returns both. The plaintext is never recoverable later.
func (s *Service) MintAPIToken(ctx context.Context, site *repository.Site, label string, expiresAt *time.Time) (string, *repository.APIToken, error) {
	plaintext, err := token.Generate(s.tokenPrefix, site.Slug)
	if err != nil {
		return "", nil, err
	}
	rec, err := s.tokens.Create(ctx, repository.CreateAPITokenInput{
		SiteID:    site.ID,
		Label:     label,
		TokenHash: token.DeriveHash(plaintext, s.tokenSalt),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", nil, err
	}
	logger.From(ctx).Info("api token minted",
		logger.SiteID(site.ID), logger.TokenID(rec.ID))
	return plaintext, rec, nil
}
