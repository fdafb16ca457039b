package bootstrap

import (
	"context"
	"testing"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

type stubSites struct {
	bySlug map[string]*repository.Site
}

func (s *stubSites) GetByID(_ context.Context, id string) (*repository.Site, error) {
	for _, site := range s.bySlug {
		if site.ID == id {
			return site, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubSites) GetBySlug(_ context.Context, slug string) (*repository.Site, error) {
	if site, ok := s.bySlug[slug]; ok {
		return site, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSites) GetByDomain(context.Context, string) (*repository.Site, error) {
	return nil, repository.ErrNotFound
}

func (s *stubSites) List(context.Context) ([]repository.Site, error) { return nil, nil }

func (s *stubSites) Create(_ context.Context, input repository.CreateSiteInput) (*repository.Site, error) {
	site := &repository.Site{ID: "site-" + input.Slug, Slug: input.Slug, Name: input.Name}
	s.bySlug[input.Slug] = site
	return site, nil
}

func (s *stubSites) Update(context.Context, string, repository.UpdateSiteInput) error {
	return nil
}

type stubUsers struct {
	byEmail map[string]*repository.User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUsers) GetByID(context.Context, string) (*repository.User, error) {
	return nil, repository.ErrNotFound
}

func (s *stubUsers) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	u := &repository.User{
		ID:           "user-" + input.Email,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
	}
	s.byEmail[u.Email] = u
	return u, nil
}

func (s *stubUsers) UpdatePasswordHash(context.Context, string, string) error { return nil }

type stubMemberships struct {
	grants map[string]string // userID -> siteID
}

func (s *stubMemberships) SitesForUser(context.Context, string) ([]repository.Site, error) {
	return nil, nil
}

func (s *stubMemberships) HasAccess(_ context.Context, userID, siteID string) (bool, error) {
	return s.grants[userID] == siteID, nil
}

func (s *stubMemberships) Grant(_ context.Context, userID, siteID string) error {
	s.grants[userID] = siteID
	return nil
}

func (s *stubMemberships) Revoke(_ context.Context, userID string, _ string) error {
	delete(s.grants, userID)
	return nil
}

func newStubRepos() (*repos.Repositories, *stubSites, *stubUsers, *stubMemberships) {
	sites := &stubSites{bySlug: make(map[string]*repository.Site)}
	users := &stubUsers{byEmail: make(map[string]*repository.User)}
	members := &stubMemberships{grants: make(map[string]string)}
	return &repos.Repositories{Sites: sites, Users: users, Memberships: members}, sites, users, members
}

func TestEnsureAdmin_CreatesSiteAndAdmin(t *testing.T) {
	r, sites, users, members := newStubRepos()

	err := EnsureAdmin(context.Background(), Options{
		Repos:         r,
		DefaultSite:   "demo",
		SkipPrompt:    true,
		AdminEmail:    "admin@demo.test",
		AdminPassword: "a long enough password",
	})
	if err != nil {
		t.Fatalf("EnsureAdmin err: %v", err)
	}

	site, ok := sites.bySlug["demo"]
	if !ok {
		t.Fatal("default site was not created")
	}
	admin, ok := users.byEmail["admin@demo.test"]
	if !ok {
		t.Fatal("admin user was not created")
	}
	if admin.Role != repository.RoleAdmin {
		t.Fatalf("role = %q, want admin", admin.Role)
	}
	if members.grants[admin.ID] != site.ID {
		t.Fatal("admin was not granted membership of the default site")
	}
	// The stored hash must verify against the provided password.
	if !password.Verify("a long enough password", admin.PasswordHash) {
		t.Fatal("stored password hash does not verify")
	}
}

func TestEnsureAdmin_IdempotentOnExistingAdmin(t *testing.T) {
	r, _, users, members := newStubRepos()

	opts := Options{
		Repos:         r,
		DefaultSite:   "demo",
		SkipPrompt:    true,
		AdminEmail:    "admin@demo.test",
		AdminPassword: "a long enough password",
	}
	if err := EnsureAdmin(context.Background(), opts); err != nil {
		t.Fatalf("first EnsureAdmin err: %v", err)
	}
	firstHash := users.byEmail["admin@demo.test"].PasswordHash

	opts.AdminPassword = "a different password"
	if err := EnsureAdmin(context.Background(), opts); err != nil {
		t.Fatalf("second EnsureAdmin err: %v", err)
	}
	if got := users.byEmail["admin@demo.test"].PasswordHash; got != firstHash {
		t.Fatal("existing admin's password hash must not be rewritten")
	}
	if len(members.grants) != 1 {
		t.Fatalf("grants = %d, want 1", len(members.grants))
	}
}

func TestEnsureAdmin_SkipPromptRequiresCredentials(t *testing.T) {
	r, _, _, _ := newStubRepos()

	err := EnsureAdmin(context.Background(), Options{
		Repos:       r,
		DefaultSite: "demo",
		SkipPrompt:  true,
	})
	if err == nil {
		t.Fatal("expected an error without credentials when prompting is disabled")
	}
}
