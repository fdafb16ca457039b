package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type tokenRepo struct {
	db store.Database
}

const tokenColumns = `id, site_id, label, token_hash, is_active, expires_at, last_used_at, created_at`

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.APIToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM api_tokens WHERE token_hash = $1`
	var t repository.APIToken
	err := r.db.QueryOne(ctx, query, tokenHash).Scan(
		&t.ID, &t.SiteID, &t.Label, &t.TokenHash, &t.IsActive,
		&t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *tokenRepo) ListBySite(ctx context.Context, siteID string) ([]repository.APIToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM api_tokens WHERE site_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.APIToken
	for rows.Next() {
		var t repository.APIToken
		if err := rows.Scan(
			&t.ID, &t.SiteID, &t.Label, &t.TokenHash, &t.IsActive,
			&t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateAPITokenInput) (*repository.APIToken, error) {
	t := &repository.APIToken{
		ID:        uuid.NewString(),
		SiteID:    input.SiteID,
		Label:     input.Label,
		TokenHash: input.TokenHash,
		IsActive:  true,
		ExpiresAt: input.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	const query = `
		INSERT INTO api_tokens (id, site_id, label, token_hash, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	`
	if _, err := r.db.Execute(ctx, query, t.ID, t.SiteID, t.Label, t.TokenHash, t.ExpiresAt, t.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, siteID, id string) error {
	const query = `UPDATE api_tokens SET is_active = FALSE WHERE site_id = $1 AND id = $2`
	n, err := r.db.Execute(ctx, query, siteID, id)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`
	_, err := r.db.Execute(ctx, query, id, at.UTC())
	return mapErr(err)
}

var _ repository.APITokenRepository = (*tokenRepo)(nil)
