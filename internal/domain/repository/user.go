package repository

import (
	"context"
	"time"
)

// Role is the coarse access level of a staff user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// CanDelete reports whether the role may hard-delete domain records.
func (r Role) CanDelete() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is a staff member of the management company. Users are global;
// access to sites is granted through memberships.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserInput contains the data to create a user.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Name         string
	Role         Role
}

// UserRepository defines operations over users.
type UserRepository interface {
	// GetByEmail returns ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// Create returns ErrConflict if the email is taken.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// MembershipRepository tracks which sites a user can act on.
type MembershipRepository interface {
	// SitesForUser returns the sites the user can access, ordered by slug.
	SitesForUser(ctx context.Context, userID string) ([]Site, error)

	// HasAccess reports whether the user is a member of the site.
	HasAccess(ctx context.Context, userID, siteID string) (bool, error)

	// Grant is idempotent.
	Grant(ctx context.Context, userID, siteID string) error

	// Revoke removes the membership if present.
	Revoke(ctx context.Context, userID, siteID string) error
}
