package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type imageRepo struct {
	db store.Database
}

const imageColumns = `id, site_id, entity_type, entity_id, object_key, content_type, size_bytes, sort_order, created_at`

func (r *imageRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images WHERE site_id = $1 AND id = $2`
	var img repository.Image
	err := r.db.QueryOne(ctx, query, siteID, id).Scan(
		&img.ID, &img.SiteID, &img.EntityType, &img.EntityID, &img.ObjectKey,
		&img.ContentType, &img.SizeBytes, &img.SortOrder, &img.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &img, nil
}

func (r *imageRepo) ListByEntity(ctx context.Context, siteID, entityType, entityID string) ([]repository.Image, error) {
	const query = `
		SELECT ` + imageColumns + `
		FROM images
		WHERE site_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY sort_order, created_at
	`
	rows, err := r.db.Query(ctx, query, siteID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Image
	for rows.Next() {
		var img repository.Image
		if err := rows.Scan(
			&img.ID, &img.SiteID, &img.EntityType, &img.EntityID, &img.ObjectKey,
			&img.ContentType, &img.SizeBytes, &img.SortOrder, &img.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *imageRepo) Create(ctx context.Context, siteID string, input repository.CreateImageInput) (*repository.Image, error) {
	img := &repository.Image{
		ID:          uuid.NewString(),
		SiteID:      siteID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		ObjectKey:   input.ObjectKey,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		SortOrder:   input.SortOrder,
		CreatedAt:   time.Now().UTC(),
	}
	const query = `
		INSERT INTO images (id, site_id, entity_type, entity_id, object_key, content_type, size_bytes, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Execute(ctx, query,
		img.ID, img.SiteID, img.EntityType, img.EntityID, img.ObjectKey,
		img.ContentType, img.SizeBytes, img.SortOrder, img.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return img, nil
}

func (r *imageRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM images WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Reorder rewrites sort_order for every image of the entity in one
// atomic batch. The statement is scoped by site, entity type and
// entity id so a stray id from another entity cannot be moved.
func (r *imageRepo) Reorder(ctx context.Context, siteID, entityType, entityID string, orderedIDs []string) error {
	const query = `
		UPDATE images SET sort_order = $5
		WHERE site_id = $1 AND entity_type = $2 AND entity_id = $3 AND id = $4
	`
	stmts := make([]store.Statement, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		stmts = append(stmts, store.Statement{
			SQL:  query,
			Args: []any{siteID, entityType, entityID, id, i},
		})
	}
	return r.db.Batch(ctx, stmts)
}

var _ repository.ImageRepository = (*imageRepo)(nil)

type documentRepo struct {
	db store.Database
}

const documentColumns = `id, site_id, entity_type, entity_id, object_key, filename, content_type, size_bytes, created_at`

func (r *documentRepo) GetByID(ctx context.Context, siteID, id string) (*repository.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE site_id = $1 AND id = $2`
	var d repository.Document
	err := r.db.QueryOne(ctx, query, siteID, id).Scan(
		&d.ID, &d.SiteID, &d.EntityType, &d.EntityID, &d.ObjectKey,
		&d.Filename, &d.ContentType, &d.SizeBytes, &d.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *documentRepo) ListByEntity(ctx context.Context, siteID, entityType, entityID string) ([]repository.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE site_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, siteID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Document
	for rows.Next() {
		var d repository.Document
		if err := rows.Scan(
			&d.ID, &d.SiteID, &d.EntityType, &d.EntityID, &d.ObjectKey,
			&d.Filename, &d.ContentType, &d.SizeBytes, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *documentRepo) Create(ctx context.Context, siteID string, input repository.CreateDocumentInput) (*repository.Document, error) {
	d := &repository.Document{
		ID:          uuid.NewString(),
		SiteID:      siteID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		ObjectKey:   input.ObjectKey,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		CreatedAt:   time.Now().UTC(),
	}
	const query = `
		INSERT INTO documents (id, site_id, entity_type, entity_id, object_key, filename, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Execute(ctx, query,
		d.ID, d.SiteID, d.EntityType, d.EntityID, d.ObjectKey,
		d.Filename, d.ContentType, d.SizeBytes, d.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (r *documentRepo) Delete(ctx context.Context, siteID, id string) error {
	const query = `DELETE FROM documents WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.DocumentRepository = (*documentRepo)(nil)
