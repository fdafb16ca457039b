package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type tenantRepo struct {
	db store.Database
}

const tenantColumns = `id, site_id, first_name, last_name, email, phone, created_at, updated_at`

func (r *tenantRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE site_id = $1 AND id = $2`
	var t repository.Tenant
	err := r.db.QueryOne(ctx, query, siteID, id).Scan(
		&t.ID, &t.SiteID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *tenantRepo) List(ctx context.Context, siteID string, filter repository.ListTenantsFilter) ([]repository.Tenant, error) {
	const query = `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE site_id = $1
		  AND ($2 = '' OR first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY last_name, first_name
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, siteID, filter.Search, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Tenant
	for rows.Next() {
		var t repository.Tenant
		if err := rows.Scan(
			&t.ID, &t.SiteID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tenantRepo) Create(ctx context.Context, siteID string, input repository.CreateTenantInput) (*repository.Tenant, error) {
	now := time.Now().UTC()
	t := &repository.Tenant{
		ID:        uuid.NewString(),
		SiteID:    siteID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const query = `
		INSERT INTO tenants (id, site_id, first_name, last_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Execute(ctx, query, t.ID, t.SiteID, t.FirstName, t.LastName, t.Email, t.Phone, t.CreatedAt, t.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *tenantRepo) Update(ctx context.Context, siteID, id string, input repository.UpdateTenantInput) error {
	const query = `
		UPDATE tenants SET
			first_name = COALESCE($3, first_name),
			last_name  = COALESCE($4, last_name),
			email      = COALESCE($5, email),
			phone      = COALESCE($6, phone),
			updated_at = $7
		WHERE site_id = $1 AND id = $2
	`
	n, err := r.db.Execute(ctx, query, siteID, id, input.FirstName, input.LastName, input.Email, input.Phone, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tenantRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM tenants WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TenantRepository = (*tenantRepo)(nil)
