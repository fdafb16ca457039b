package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
	"github.com/atrium-pm/atrium/internal/security/token"
)

// ─── fakes ──────────────────────────────────────────────────────────

type fakeUsers struct {
	byEmail map[string]*repository.User
	byID    map[string]*repository.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*repository.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(context.Context, repository.CreateUserInput) (*repository.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUsers) UpdatePasswordHash(context.Context, string, string) error {
	return errors.New("not implemented")
}

type fakeSites struct {
	byID     map[string]*repository.Site
	bySlug   map[string]*repository.Site
	byDomain map[string]*repository.Site
}

func (f *fakeSites) GetByID(_ context.Context, id string) (*repository.Site, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSites) GetBySlug(_ context.Context, slug string) (*repository.Site, error) {
	if s, ok := f.bySlug[slug]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSites) GetByDomain(_ context.Context, domain string) (*repository.Site, error) {
	if s, ok := f.byDomain[domain]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSites) List(context.Context) ([]repository.Site, error) { return nil, nil }

func (f *fakeSites) Create(context.Context, repository.CreateSiteInput) (*repository.Site, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSites) Update(context.Context, string, repository.UpdateSiteInput) error {
	return errors.New("not implemented")
}

type fakeMemberships struct {
	grants map[string]bool // userID+"/"+siteID
}

func (f *fakeMemberships) SitesForUser(context.Context, string) ([]repository.Site, error) {
	return nil, nil
}

func (f *fakeMemberships) HasAccess(_ context.Context, userID, siteID string) (bool, error) {
	return f.grants[userID+"/"+siteID], nil
}

func (f *fakeMemberships) Grant(context.Context, string, string) error  { return nil }
func (f *fakeMemberships) Revoke(context.Context, string, string) error { return nil }

type fakeTokens struct {
	byHash  map[string]*repository.APIToken
	touched []string
}

func (f *fakeTokens) GetByHash(_ context.Context, hash string) (*repository.APIToken, error) {
	if t, ok := f.byHash[hash]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTokens) ListBySite(context.Context, string) ([]repository.APIToken, error) {
	return nil, nil
}

func (f *fakeTokens) Create(_ context.Context, in repository.CreateAPITokenInput) (*repository.APIToken, error) {
	t := &repository.APIToken{
		ID:        "tok-" + in.Label,
		SiteID:    in.SiteID,
		Label:     in.Label,
		TokenHash: in.TokenHash,
		IsActive:  true,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	f.byHash[in.TokenHash] = t
	return t, nil
}

func (f *fakeTokens) Revoke(context.Context, string, string) error { return nil }

func (f *fakeTokens) TouchLastUsed(_ context.Context, id string, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

// ─── fixture ────────────────────────────────────────────────────────

const testSalt = "deployment-salt"

func newService(t *testing.T) (*Service, *fakeTokens) {
	t.Helper()

	hash, err := password.Hash(password.Default, "hunter22hunter22")
	if err != nil {
		t.Fatal(err)
	}
	alice := &repository.User{ID: "u-alice", Email: "alice@example.com", PasswordHash: hash, Name: "Alice", Role: repository.RoleManager}

	users := &fakeUsers{
		byEmail: map[string]*repository.User{"alice@example.com": alice},
		byID:    map[string]*repository.User{"u-alice": alice},
	}
	siteA := &repository.Site{ID: "site-a", Slug: "acme", Name: "Acme"}
	siteB := &repository.Site{ID: "site-b", Slug: "globex", Name: "Globex"}
	sites := &fakeSites{
		byID:   map[string]*repository.Site{"site-a": siteA, "site-b": siteB},
		bySlug: map[string]*repository.Site{"acme": siteA, "globex": siteB},
		byDomain: map[string]*repository.Site{
			"rentals.acme.com": siteA,
		},
	}
	memberships := &fakeMemberships{grants: map[string]bool{"u-alice/site-a": true}}
	tokens := &fakeTokens{byHash: map[string]*repository.APIToken{}}

	codec, err := sessioncookie.New("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return New(users, sites, memberships, tokens, codec, testSalt, "atr"), tokens
}

// ─── login ──────────────────────────────────────────────────────────

func TestLogin_OK(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	sess, err := svc.Login(context.Background(), "site-a", "Alice@Example.com ", "hunter22hunter22")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if sess.User.ID != "u-alice" || sess.Site.ID != "site-a" || sess.Cookie == "" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.Login(context.Background(), "site-a", "alice@example.com", "wrong")
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.Login(context.Background(), "site-a", "nobody@example.com", "hunter22hunter22")
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_NotAMember(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	// Valid credentials, but no membership on site-b.
	_, err := svc.Login(context.Background(), "site-b", "alice@example.com", "hunter22hunter22")
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

// ─── site switch ────────────────────────────────────────────────────

func TestSwitchSite_Forbidden(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.SwitchSite(context.Background(), "u-alice", "site-b")
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSwitchSite_OK(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	svc.memberships.(*fakeMemberships).grants["u-alice/site-b"] = true

	sess, err := svc.SwitchSite(context.Background(), "u-alice", "site-b")
	if err != nil {
		t.Fatalf("SwitchSite err: %v", err)
	}
	if sess.Site.ID != "site-b" || sess.Cookie == "" {
		t.Fatalf("session = %+v", sess)
	}
}

// ─── api tokens ─────────────────────────────────────────────────────

func TestValidateAPIToken_OKAndTouch(t *testing.T) {
	t.Parallel()
	svc, tokens := newService(t)

	plaintext := "atr_acme_00112233445566778899aabbccddeeff"
	tokens.byHash[token.DeriveHash(plaintext, testSalt)] = &repository.APIToken{
		ID: "tok-1", SiteID: "site-a", IsActive: true,
	}

	got, err := svc.ValidateAPIToken(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("ValidateAPIToken err: %v", err)
	}
	if got.SiteID != "site-a" {
		t.Fatalf("token site = %q", got.SiteID)
	}
	if len(tokens.touched) != 1 || tokens.touched[0] != "tok-1" {
		t.Fatalf("touched = %v", tokens.touched)
	}
}

func TestValidateAPIToken_Unknown(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.ValidateAPIToken(context.Background(), "atr_acme_ffffffffffffffffffffffffffffffff")
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAPIToken_WrongPrefix(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.ValidateAPIToken(context.Background(), "sk_live_whatever")
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAPIToken_Inactive(t *testing.T) {
	t.Parallel()
	svc, tokens := newService(t)

	plaintext := "atr_acme_00112233445566778899aabbccddeeff"
	tokens.byHash[token.DeriveHash(plaintext, testSalt)] = &repository.APIToken{
		ID: "tok-1", SiteID: "site-a", IsActive: false,
	}

	_, err := svc.ValidateAPIToken(context.Background(), plaintext)
	if !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAPIToken_ExpiryBoundary(t *testing.T) {
	t.Parallel()
	svc, tokens := newService(t)

	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	plaintext := "atr_acme_00112233445566778899aabbccddeeff"
	exp := frozen
	tokens.byHash[token.DeriveHash(plaintext, testSalt)] = &repository.APIToken{
		ID: "tok-1", SiteID: "site-a", IsActive: true, ExpiresAt: &exp,
	}

	// Expiring exactly now is already expired.
	_, err := svc.ValidateAPIToken(context.Background(), plaintext)
	if !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}

	// One second earlier it still works.
	later := exp.Add(time.Second)
	tokens.byHash[token.DeriveHash(plaintext, testSalt)].ExpiresAt = &later
	if _, err := svc.ValidateAPIToken(context.Background(), plaintext); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestMintAPIToken_RoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	site := &repository.Site{ID: "site-a", Slug: "acme"}
	plaintext, rec, err := svc.MintAPIToken(context.Background(), site, "ci", nil)
	if err != nil {
		t.Fatalf("MintAPIToken err: %v", err)
	}
	if rec.SiteID != "site-a" {
		t.Fatalf("record = %+v", rec)
	}

	got, err := svc.ValidateAPIToken(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("minted token must validate: %v", err)
	}
	if got.ID != rec.ID {
		t.Fatalf("validated %q, minted %q", got.ID, rec.ID)
	}
}

// ─── site resolution ────────────────────────────────────────────────

func TestResolve_Order(t *testing.T) {
	t.Parallel()

	siteA := &repository.Site{ID: "site-a", Slug: "acme"}
	siteB := &repository.Site{ID: "site-b", Slug: "globex"}
	sites := &fakeSites{
		bySlug:   map[string]*repository.Site{"acme": siteA, "globex": siteB},
		byDomain: map[string]*repository.Site{"rentals.acme.com": siteA},
	}
	r := NewResolver(sites, "globex")
	ctx := context.Background()

	// Explicit slug wins over everything.
	got, err := r.Resolve(ctx, "Acme", "rentals.acme.com")
	if err != nil || got.ID != "site-a" {
		t.Fatalf("slug resolve = %v, %v", got, err)
	}

	// Custom domain next, port stripped.
	got, err = r.Resolve(ctx, "", "rentals.acme.com:8443")
	if err != nil || got.ID != "site-a" {
		t.Fatalf("domain resolve = %v, %v", got, err)
	}

	// Fallback to the default site.
	got, err = r.Resolve(ctx, "", "unknown.example.com")
	if err != nil || got.ID != "site-b" {
		t.Fatalf("default resolve = %v, %v", got, err)
	}

	// Unknown explicit slug is an error, not a fallback.
	if _, err := r.Resolve(ctx, "nope", "rentals.acme.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_NoDefault(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeSites{bySlug: map[string]*repository.Site{}, byDomain: map[string]*repository.Site{}}, "")
	if _, err := r.Resolve(context.Background(), "", "unknown.example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
