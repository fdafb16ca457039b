package repos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type siteRepo struct {
	db store.Database
}

const siteColumns = `id, slug, name, COALESCE(custom_domain, ''), theme, created_at`

func scanSite(row store.Row) (*repository.Site, error) {
	var s repository.Site
	var theme []byte
	if err := row.Scan(&s.ID, &s.Slug, &s.Name, &s.CustomDomain, &theme, &s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	if len(theme) > 0 {
		_ = json.Unmarshal(theme, &s.Theme)
	}
	return &s, nil
}

func (r *siteRepo) GetByID(ctx context.Context, id string) (*repository.Site, error) {
	const query = `SELECT ` + siteColumns + ` FROM sites WHERE id = $1`
	return scanSite(r.db.QueryOne(ctx, query, id))
}

func (r *siteRepo) GetBySlug(ctx context.Context, slug string) (*repository.Site, error) {
	const query = `SELECT ` + siteColumns + ` FROM sites WHERE slug = $1`
	return scanSite(r.db.QueryOne(ctx, query, strings.ToLower(strings.TrimSpace(slug))))
}

func (r *siteRepo) GetByDomain(ctx context.Context, domain string) (*repository.Site, error) {
	const query = `SELECT ` + siteColumns + ` FROM sites WHERE custom_domain = $1`
	return scanSite(r.db.QueryOne(ctx, query, strings.ToLower(strings.TrimSpace(domain))))
}

func (r *siteRepo) List(ctx context.Context) ([]repository.Site, error) {
	const query = `SELECT ` + siteColumns + ` FROM sites ORDER BY slug`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []repository.Site
	for rows.Next() {
		var s repository.Site
		var theme []byte
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.CustomDomain, &theme, &s.CreatedAt); err != nil {
			return nil, err
		}
		if len(theme) > 0 {
			_ = json.Unmarshal(theme, &s.Theme)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

func (r *siteRepo) Create(ctx context.Context, input repository.CreateSiteInput) (*repository.Site, error) {
	theme, err := json.Marshal(input.Theme)
	if err != nil {
		return nil, err
	}
	s := &repository.Site{
		ID:           uuid.NewString(),
		Slug:         strings.ToLower(strings.TrimSpace(input.Slug)),
		Name:         input.Name,
		CustomDomain: strings.ToLower(strings.TrimSpace(input.CustomDomain)),
		Theme:        input.Theme,
		CreatedAt:    time.Now().UTC(),
	}
	const query = `
		INSERT INTO sites (id, slug, name, custom_domain, theme, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`
	if _, err := r.db.Execute(ctx, query, s.ID, s.Slug, s.Name, s.CustomDomain, theme, s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *siteRepo) Update(ctx context.Context, id string, input repository.UpdateSiteInput) error {
	const query = `
		UPDATE sites SET
			name          = COALESCE($2, name),
			custom_domain = COALESCE($3, custom_domain),
			theme         = COALESCE($4, theme)
		WHERE id = $1
	`
	var theme []byte
	if input.Theme != nil {
		b, err := json.Marshal(input.Theme)
		if err != nil {
			return err
		}
		theme = b
	}
	n, err := r.db.Execute(ctx, query, id, input.Name, input.CustomDomain, theme)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
