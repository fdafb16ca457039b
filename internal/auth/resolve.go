package auth

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/atrium-pm/atrium/internal/domain/repository"
)

// Resolver maps an incoming request to the site it addresses.
// Resolution order: explicit slug (header or query), then custom
// domain, then the configured default site.
type Resolver struct {
	sites       repository.SiteRepository
	defaultSite string
}

// NewResolver returns a Resolver. defaultSite is a slug and may be
// empty, in which case unresolvable requests fail.
func NewResolver(sites repository.SiteRepository, defaultSite string) *Resolver {
	return &Resolver{sites: sites, defaultSite: defaultSite}
}

// Resolve returns the addressed site. slug is the explicit override
// from the X-Site header or ?site= query parameter; host is the HTTP
// Host value, port included or not.
func (r *Resolver) Resolve(ctx context.Context, slug, host string) (*repository.Site, error) {
	if slug = strings.TrimSpace(strings.ToLower(slug)); slug != "" {
		return r.sites.GetBySlug(ctx, slug)
	}

	if host = normalizeHost(host); host != "" {
		site, err := r.sites.GetByDomain(ctx, host)
		if err == nil {
			return site, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if r.defaultSite != "" {
		return r.sites.GetBySlug(ctx, r.defaultSite)
	}
	return nil, repository.ErrNotFound
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}
