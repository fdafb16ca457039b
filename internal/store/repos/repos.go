// Package repos implements the domain repository interfaces with
// parameterized SQL over the provider-neutral store.Database. Every
// site-scoped statement filters on site_id; nothing here ever
// interpolates values into SQL text.
package repos

import (
	"errors"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

// Repositories aggregates all repository implementations over one Database.
type Repositories struct {
	Sites       repository.SiteRepository
	Users       repository.UserRepository
	Memberships repository.MembershipRepository
	Tokens      repository.APITokenRepository
	Properties  repository.PropertyRepository
	Units       repository.UnitRepository
	Tenants     repository.TenantRepository
	Leases      repository.LeaseRepository
	Leads       repository.LeadRepository
	WorkOrders  repository.WorkOrderRepository
	Images      repository.ImageRepository
	Documents   repository.DocumentRepository
}

// New wires every repository to db.
func New(db store.Database) *Repositories {
	return &Repositories{
		Sites:       &siteRepo{db: db},
		Users:       &userRepo{db: db},
		Memberships: &membershipRepo{db: db},
		Tokens:      &tokenRepo{db: db},
		Properties:  &propertyRepo{db: db},
		Units:       &unitRepo{db: db},
		Tenants:     &tenantRepo{db: db},
		Leases:      &leaseRepo{db: db},
		Leads:       &leadRepo{db: db},
		WorkOrders:  &workOrderRepo{db: db},
		Images:      &imageRepo{db: db},
		Documents:   &documentRepo{db: db},
	}
}

// mapErr translates store sentinels to repository sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNoRows):
		return repository.ErrNotFound
	case errors.Is(err, store.ErrDuplicate):
		return repository.ErrConflict
	default:
		return err
	}
}

// clampLimit applies the default/max paging bounds shared by all lists.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
