package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/store"
)

type userRepo struct {
	db store.Database
}

const userColumns = `id, email, password_hash, name, role, created_at`

func scanUser(row store.Row) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryOne(ctx, query, strings.TrimSpace(email)))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryOne(ctx, query, id))
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}
	const query = `
		INSERT INTO users (id, email, password_hash, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Execute(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	n, err := r.db.Execute(ctx, query, userID, newHash)
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type membershipRepo struct {
	db store.Database
}

func (r *membershipRepo) SitesForUser(ctx context.Context, userID string) ([]repository.Site, error) {
	const query = `
		SELECT s.id, s.slug, s.name, COALESCE(s.custom_domain, ''), s.theme, s.created_at
		FROM sites s
		JOIN site_members m ON m.site_id = s.id
		WHERE m.user_id = $1
		ORDER BY s.slug
	`
	rows, err := r.db.Query(ctx, query, userID)
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
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

func (r *membershipRepo) HasAccess(ctx context.Context, userID, siteID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM site_members WHERE user_id = $1 AND site_id = $2)`
	var ok bool
	if err := r.db.QueryOne(ctx, query, userID, siteID).Scan(&ok); err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

func (r *membershipRepo) Grant(ctx context.Context, userID, siteID string) error {
	const query = `
		INSERT INTO site_members (site_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (site_id, user_id) DO NOTHING
	`
	_, err := r.db.Execute(ctx, query, siteID, userID, time.Now().UTC())
	return mapErr(err)
}

func (r *membershipRepo) Revoke(ctx context.Context, userID, siteID string) error {
	const query = `DELETE FROM site_members WHERE site_id = $1 AND user_id = $2`
	_, err := r.db.Execute(ctx, query, siteID, userID)
	return mapErr(err)
}

var (
	_ repository.UserRepository       = (*userRepo)(nil)
	_ repository.MembershipRepository = (*membershipRepo)(nil)
)
