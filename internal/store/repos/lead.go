package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type leadRepo struct {
	db store.Database
}

const leadColumns = `id, site_id, property_id, name, email, phone, message, status, screening, created_at`

func scanLead(row store.Row) (*repository.Lead, error) {
	var l repository.Lead
	var screening []byte
	err := row.Scan(
		&l.ID, &l.SiteID, &l.PropertyID, &l.Name, &l.Email, &l.Phone,
		&l.Message, &l.Status, &screening, &l.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(screening) > 0 {
		_ = json.Unmarshal(screening, &l.Screening)
	}
	return &l, nil
}

func (r *leadRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Lead, error) {
	const query = `SELECT ` + leadColumns + ` FROM leads WHERE site_id = $1 AND id = $2`
	return scanLead(r.db.QueryOne(ctx, query, siteID, id))
}

func (r *leadRepo) List(ctx context.Context, siteID string, filter repository.ListLeadsFilter) ([]repository.Lead, error) {
	const query = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE site_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR property_id = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, siteID, filter.Status, filter.PropertyID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Lead
	for rows.Next() {
		var l repository.Lead
		var screening []byte
		if err := rows.Scan(
			&l.ID, &l.SiteID, &l.PropertyID, &l.Name, &l.Email, &l.Phone,
			&l.Message, &l.Status, &screening, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(screening) > 0 {
			_ = json.Unmarshal(screening, &l.Screening)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *leadRepo) Create(ctx context.Context, siteID string, input repository.CreateLeadInput) (*repository.Lead, error) {
	l := &repository.Lead{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		PropertyID: input.PropertyID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Message:    input.Message,
		Status:     repository.LeadNew,
		CreatedAt:  time.Now().UTC(),
	}
	const query = `
		INSERT INTO leads (id, site_id, property_id, name, email, phone, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Execute(ctx, query,
		l.ID, l.SiteID, l.PropertyID, l.Name, l.Email, l.Phone, l.Message, l.Status, l.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (r *leadRepo) SetStatus(ctx context.Context, siteID, id, status string) error {
	const query = `UPDATE leads SET status = $3 WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id, status)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *leadRepo) SetScreening(ctx context.Context, siteID, id string, s *repository.Screening) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	const query = `UPDATE leads SET screening = $3 WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id, b)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM leads WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.LeadRepository = (*leadRepo)(nil)
