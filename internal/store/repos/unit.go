package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type unitRepo struct {
	db store.Database
}

const unitColumns = `id, site_id, property_id, label, bedrooms, bathrooms, sqft, rent_cents, status, created_at, updated_at`

func scanUnitRow(row store.Row) (*repository.Unit, error) {
	var u repository.Unit
	err := row.Scan(
		&u.ID, &u.SiteID, &u.PropertyID, &u.Label, &u.Bedrooms, &u.Bathrooms,
		&u.Sqft, &u.RentCents, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *unitRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Unit, error) {
	const query = `SELECT ` + unitColumns + ` FROM units WHERE site_id = $1 AND id = $2`
	return scanUnitRow(r.db.QueryOne(ctx, query, siteID, id))
}

func (r *unitRepo) List(ctx context.Context, siteID string, filter repository.ListUnitsFilter) ([]repository.Unit, error) {
	const query = `
		SELECT ` + unitColumns + `
		FROM units
		WHERE site_id = $1
		  AND ($2 = '' OR property_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY label
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, siteID, filter.PropertyID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Unit
	for rows.Next() {
		var u repository.Unit
		if err := rows.Scan(
			&u.ID, &u.SiteID, &u.PropertyID, &u.Label, &u.Bedrooms, &u.Bathrooms,
			&u.Sqft, &u.RentCents, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *unitRepo) Create(ctx context.Context, siteID string, input repository.CreateUnitInput) (*repository.Unit, error) {
	// The property must belong to the same site; the FK alone cannot
	// enforce that, so check explicitly.
	const check = `SELECT EXISTS(SELECT 1 FROM properties WHERE site_id = $1 AND id = $2)`
	var ok bool
	if err := r.db.QueryOne(ctx, check, siteID, input.PropertyID).Scan(&ok); err != nil {
		return nil, mapErr(err)
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	now := time.Now().UTC()
	u := &repository.Unit{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		PropertyID: input.PropertyID,
		Label:      input.Label,
		Bedrooms:   input.Bedrooms,
		Bathrooms:  input.Bathrooms,
		Sqft:       input.Sqft,
		RentCents:  input.RentCents,
		Status:     repository.UnitVacant,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	const query = `
		INSERT INTO units (id, site_id, property_id, label, bedrooms, bathrooms, sqft, rent_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := r.db.Execute(ctx, query,
		u.ID, u.SiteID, u.PropertyID, u.Label, u.Bedrooms, u.Bathrooms,
		u.Sqft, u.RentCents, u.Status, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *unitRepo) Update(ctx context.Context, siteID, id string, input repository.UpdateUnitInput) error {
	const query = `
		UPDATE units SET
			label      = COALESCE($3, label),
			bedrooms   = COALESCE($4, bedrooms),
			bathrooms  = COALESCE($5, bathrooms),
			sqft       = COALESCE($6, sqft),
			rent_cents = COALESCE($7, rent_cents),
			status     = COALESCE($8, status),
			updated_at = $9
		WHERE site_id = $1 AND id = $2
	`
	n, err := r.db.Execute(ctx, query, siteID, id,
		input.Label, input.Bedrooms, input.Bathrooms, input.Sqft,
		input.RentCents, input.Status, time.Now().UTC(),
	)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *unitRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM units WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *unitRepo) SetStatus(ctx context.Context, siteID, id, status string) error {
	const query = `UPDATE units SET status = $3, updated_at = $4 WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id, status, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *unitRepo) Listings(ctx context.Context, siteID string, limit, offset int) ([]repository.Listing, error) {
	const query = `
		SELECT
			u.id, u.site_id, u.property_id, u.label, u.bedrooms, u.bathrooms,
			u.sqft, u.rent_cents, u.status, u.created_at, u.updated_at,
			p.id, p.site_id, p.name, p.address, p.city, p.region, p.postal_code,
			p.lat, p.lng, p.kind, p.status, p.created_at, p.updated_at
		FROM units u
		JOIN properties p ON p.id = u.property_id AND p.site_id = u.site_id
		WHERE u.site_id = $1 AND u.status = $2 AND p.status = 'active'
		ORDER BY p.name, u.label
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, siteID, repository.UnitListed, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Listing
	for rows.Next() {
		var l repository.Listing
		if err := rows.Scan(
			&l.Unit.ID, &l.Unit.SiteID, &l.Unit.PropertyID, &l.Unit.Label, &l.Unit.Bedrooms, &l.Unit.Bathrooms,
			&l.Unit.Sqft, &l.Unit.RentCents, &l.Unit.Status, &l.Unit.CreatedAt, &l.Unit.UpdatedAt,
			&l.Property.ID, &l.Property.SiteID, &l.Property.Name, &l.Property.Address, &l.Property.City,
			&l.Property.Region, &l.Property.PostalCode, &l.Property.Lat, &l.Property.Lng,
			&l.Property.Kind, &l.Property.Status, &l.Property.CreatedAt, &l.Property.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var _ repository.UnitRepository = (*unitRepo)(nil)
