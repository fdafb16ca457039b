package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type workOrderRepo struct {
	db store.Database
}

const workOrderColumns = `id, site_id, property_id, unit_id, title, description, priority, status, created_at, updated_at`

func (r *workOrderRepo) GetByID(ctx context.Context, siteID, id string) (*repository.WorkOrder, error) {
	const query = `SELECT ` + workOrderColumns + ` FROM work_orders WHERE site_id = $1 AND id = $2`
	var w repository.WorkOrder
	err := r.db.QueryOne(ctx, query, siteID, id).Scan(
		&w.ID, &w.SiteID, &w.PropertyID, &w.UnitID, &w.Title, &w.Description,
		&w.Priority, &w.Status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &w, nil
}

func (r *workOrderRepo) List(ctx context.Context, siteID string, filter repository.ListWorkOrdersFilter) ([]repository.WorkOrder, error) {
	const query = `
		SELECT ` + workOrderColumns + `
		FROM work_orders
		WHERE site_id = $1
		  AND ($2 = '' OR property_id = $2)
		  AND ($3 = '' OR unit_id = $3)
		  AND ($4 = '' OR status = $4)
		  AND ($5 = '' OR priority = $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`
	rows, err := r.db.Query(ctx, query, siteID,
		filter.PropertyID, filter.UnitID, filter.Status, filter.Priority,
		clampLimit(filter.Limit), filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.WorkOrder
	for rows.Next() {
		var w repository.WorkOrder
		if err := rows.Scan(
			&w.ID, &w.SiteID, &w.PropertyID, &w.UnitID, &w.Title, &w.Description,
			&w.Priority, &w.Status, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workOrderRepo) Create(ctx context.Context, siteID string, input repository.CreateWorkOrderInput) (*repository.WorkOrder, error) {
	now := time.Now().UTC()
	w := &repository.WorkOrder{
		ID:          uuid.NewString(),
		SiteID:      siteID,
		PropertyID:  input.PropertyID,
		UnitID:      input.UnitID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      repository.WorkOrderOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if w.Priority == "" {
		w.Priority = repository.PriorityNormal
	}
	const query = `
		INSERT INTO work_orders (id, site_id, property_id, unit_id, title, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.Execute(ctx, query,
		w.ID, w.SiteID, w.PropertyID, w.UnitID, w.Title, w.Description,
		w.Priority, w.Status, w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return w, nil
}

func (r *workOrderRepo) Update(ctx context.Context, siteID, id string, input repository.UpdateWorkOrderInput) error {
	const query = `
		UPDATE work_orders SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			priority    = COALESCE($5, priority),
			status      = COALESCE($6, status),
			updated_at  = $7
		WHERE site_id = $1 AND id = $2
	`
	n, err := r.db.Execute(ctx, query, siteID, id, input.Title, input.Description, input.Priority, input.Status, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *workOrderRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM work_orders WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.WorkOrderRepository = (*workOrderRepo)(nil)
