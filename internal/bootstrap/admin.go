// Package bootstrap prepares a fresh deployment for first login: a
// default site and at least one admin user must exist before the
// dashboard is usable.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

// Options drives EnsureAdmin. With SkipPrompt set, AdminEmail and
// AdminPassword must be provided (CI and scripted installs).
type Options struct {
	Repos       *repos.Repositories
	DefaultSite string // slug for the site created on first run

	SkipPrompt    bool
	AdminEmail    string
	AdminPassword string
}

// EnsureAdmin makes sure the deployment has a default site and an
// admin who is a member of it. Interactive when the terminal allows.
func EnsureAdmin(ctx context.Context, opts Options) error {
	if opts.Repos == nil {
		return errors.New("bootstrap: repositories are required")
	}

	site, err := ensureSite(ctx, opts)
	if err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	pass := opts.AdminPassword

	if email != "" {
		if existing, err := opts.Repos.Users.GetByEmail(ctx, email); err == nil {
			// Admin already provisioned; just make sure the membership holds.
			return opts.Repos.Memberships.Grant(ctx, existing.ID, site.ID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	if email == "" || pass == "" {
		if opts.SkipPrompt {
			return errors.New("bootstrap: admin email and password are required when prompting is disabled")
		}
		email, pass, err = promptCredentials()
		if err != nil {
			return err
		}
		if existing, err := opts.Repos.Users.GetByEmail(ctx, email); err == nil {
			return opts.Repos.Memberships.Grant(ctx, existing.ID, site.ID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	hash, err := password.Hash(password.Default, pass)
	if err != nil {
		return err
	}
	user, err := opts.Repos.Users.Create(ctx, repository.CreateUserInput{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         repository.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if err := opts.Repos.Memberships.Grant(ctx, user.ID, site.ID); err != nil {
		return err
	}

	logger.L().Named("bootstrap").Info("admin user created",
		logger.UserID(user.ID), logger.SiteID(site.ID))
	return nil
}

func ensureSite(ctx context.Context, opts Options) (*repository.Site, error) {
	slug := strings.ToLower(strings.TrimSpace(opts.DefaultSite))
	if slug == "" {
		slug = "default"
	}

	site, err := opts.Repos.Sites.GetBySlug(ctx, slug)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	site, err = opts.Repos.Sites.Create(ctx, repository.CreateSiteInput{
		Slug: slug,
		Name: strings.ToUpper(slug[:1]) + slug[1:],
	})
	if err != nil {
		return nil, err
	}
	logger.L().Named("bootstrap").Info("default site created",
		logger.SiteID(site.ID), logger.SiteSlug(site.Slug))
	return site, nil
}

func promptCredentials() (email, pass string, err error) {
	fmt.Println("No admin user found. Creating the first one.")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Admin email: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	email = strings.ToLower(strings.TrimSpace(line))
	if email == "" || !strings.Contains(email, "@") {
		return "", "", errors.New("bootstrap: a valid email is required")
	}

	fmt.Print("Admin password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	if len(raw) < 8 {
		return "", "", errors.New("bootstrap: password must be at least 8 characters")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	if string(raw) != string(confirm) {
		return "", "", errors.New("bootstrap: passwords do not match")
	}
	return email, string(raw), nil
}
