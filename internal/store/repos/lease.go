package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type leaseRepo struct {
	db store.Database
}

const leaseColumns = `id, site_id, unit_id, tenant_id, starts_on, ends_on, rent_cents, deposit_cents, status, checklist, created_at, updated_at`

func scanLease(row store.Row) (*repository.Lease, error) {
	var l repository.Lease
	var checklist []byte
	err := row.Scan(
		&l.ID, &l.SiteID, &l.UnitID, &l.TenantID, &l.StartsOn, &l.EndsOn,
		&l.RentCents, &l.DepositCents, &l.Status, &checklist, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(checklist) > 0 {
		_ = json.Unmarshal(checklist, &l.Checklist)
	}
	return &l, nil
}

func (r *leaseRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Lease, error) {
	const query = `SELECT ` + leaseColumns + ` FROM leases WHERE site_id = $1 AND id = $2`
	return scanLease(r.db.QueryOne(ctx, query, siteID, id))
}

func (r *leaseRepo) List(ctx context.Context, siteID string, filter repository.ListLeasesFilter) ([]repository.Lease, error) {
	const query = `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE site_id = $1
		  AND ($2 = '' OR unit_id = $2)
		  AND ($3 = '' OR tenant_id = $3)
		  AND ($4 = '' OR status = $4)
		ORDER BY starts_on DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query, siteID, filter.UnitID, filter.TenantID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Lease
	for rows.Next() {
		var l repository.Lease
		var checklist []byte
		if err := rows.Scan(
			&l.ID, &l.SiteID, &l.UnitID, &l.TenantID, &l.StartsOn, &l.EndsOn,
			&l.RentCents, &l.DepositCents, &l.Status, &checklist, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(checklist) > 0 {
			_ = json.Unmarshal(checklist, &l.Checklist)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *leaseRepo) Create(ctx context.Context, siteID string, input repository.CreateLeaseInput) (*repository.Lease, error) {
	now := time.Now().UTC()
	l := &repository.Lease{
		ID:           uuid.NewString(),
		SiteID:       siteID,
		UnitID:       input.UnitID,
		TenantID:     input.TenantID,
		StartsOn:     input.StartsOn,
		EndsOn:       input.EndsOn,
		RentCents:    input.RentCents,
		DepositCents: input.DepositCents,
		Status:       repository.LeaseDraft,
		Checklist:    repository.DefaultChecklist(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	checklist, err := json.Marshal(l.Checklist)
	if err != nil {
		return nil, err
	}
	const query = `
		INSERT INTO leases (id, site_id, unit_id, tenant_id, starts_on, ends_on, rent_cents, deposit_cents, status, checklist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.db.Execute(ctx, query,
		l.ID, l.SiteID, l.UnitID, l.TenantID, l.StartsOn, l.EndsOn,
		l.RentCents, l.DepositCents, l.Status, checklist, l.CreatedAt, l.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (r *leaseRepo) Update(ctx context.Context, siteID, id string, input repository.UpdateLeaseInput) error {
	const query = `
		UPDATE leases SET
			starts_on     = COALESCE($3, starts_on),
			ends_on       = COALESCE($4, ends_on),
			rent_cents    = COALESCE($5, rent_cents),
			deposit_cents = COALESCE($6, deposit_cents),
			updated_at    = $7
		WHERE site_id = $1 AND id = $2
	`
	n, err := r.db.Execute(ctx, query, siteID, id, input.StartsOn, input.EndsOn, input.RentCents, input.DepositCents, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *leaseRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM leases WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *leaseRepo) ActiveForUnit(ctx context.Context, siteID, unitID string) (*repository.Lease, error) {
	const query = `SELECT ` + leaseColumns + ` FROM leases WHERE site_id = $1 AND unit_id = $2 AND status = $3`
	return scanLease(r.db.QueryOne(ctx, query, siteID, unitID, repository.LeaseActive))
}

func (r *leaseRepo) SetStatus(ctx context.Context, siteID, id, status string) error {
	const query = `UPDATE leases SET status = $3, updated_at = $4 WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id, status, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *leaseRepo) SetChecklist(ctx context.Context, siteID, id string, items []repository.ChecklistItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	const query = `UPDATE leases SET checklist = $3, updated_at = $4 WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id, b, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.LeaseRepository = (*leaseRepo)(nil)
