package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type propertyRepo struct {
	db store.Database
}

const propertyColumns = `id, site_id, name, address, city, region, postal_code, lat, lng, kind, status, created_at, updated_at`

func scanProperty(row store.Row) (*repository.Property, error) {
	var p repository.Property
	err := row.Scan(
		&p.ID, &p.SiteID, &p.Name, &p.Address, &p.City, &p.Region, &p.PostalCode,
		&p.Lat, &p.Lng, &p.Kind, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *propertyRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Property, error) {
	const query = `SELECT ` + propertyColumns + ` FROM properties WHERE site_id = $1 AND id = $2`
	return scanProperty(r.db.QueryOne(ctx, query, siteID, id))
}

func (r *propertyRepo) List(ctx context.Context, siteID string, filter repository.ListPropertiesFilter) ([]repository.Property, error) {
	const query = `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE site_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR address ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, siteID, filter.Status, filter.Search, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Property
	for rows.Next() {
		var p repository.Property
		if err := rows.Scan(
			&p.ID, &p.SiteID, &p.Name, &p.Address, &p.City, &p.Region, &p.PostalCode,
			&p.Lat, &p.Lng, &p.Kind, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *propertyRepo) Create(ctx context.Context, siteID string, input repository.CreatePropertyInput) (*repository.Property, error) {
	now := time.Now().UTC()
	p := &repository.Property{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		Name:       input.Name,
		Address:    input.Address,
		City:       input.City,
		Region:     input.Region,
		PostalCode: input.PostalCode,
		Lat:        input.Lat,
		Lng:        input.Lng,
		Kind:       input.Kind,
		Status:     repository.PropertyActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	const query = `
		INSERT INTO properties (id, site_id, name, address, city, region, postal_code, lat, lng, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := r.db.Execute(ctx, query,
		p.ID, p.SiteID, p.Name, p.Address, p.City, p.Region, p.PostalCode,
		p.Lat, p.Lng, p.Kind, p.Status, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *propertyRepo) Update(ctx context.Context, siteID, id string, input repository.UpdatePropertyInput) error {
	const query = `
		UPDATE properties SET
			name        = COALESCE($3, name),
			address     = COALESCE($4, address),
			city        = COALESCE($5, city),
			region      = COALESCE($6, region),
			postal_code = COALESCE($7, postal_code),
			lat         = COALESCE($8, lat),
			lng         = COALESCE($9, lng),
			kind        = COALESCE($10, kind),
			status      = COALESCE($11, status),
			updated_at  = $12
		WHERE site_id = $1 AND id = $2
	`
	n, err := r.db.Execute(ctx, query, siteID, id,
		input.Name, input.Address, input.City, input.Region, input.PostalCode,
		input.Lat, input.Lng, input.Kind, input.Status, time.Now().UTC(),
	)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *propertyRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM properties WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PropertyRepository = (*propertyRepo)(nil)
