package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/integrations"
	"github.com/atrium-pm/atrium/internal/objstore/fsstore"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

// ─── in-memory repositories ───

type memSites struct{ sites map[string]*repository.Site }

func (m *memSites) GetByID(_ context.Context, id string) (*repository.Site, error) {
	if s, ok := m.sites[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memSites) GetBySlug(_ context.Context, slug string) (*repository.Site, error) {
	for _, s := range m.sites {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSites) GetByDomain(_ context.Context, domain string) (*repository.Site, error) {
	for _, s := range m.sites {
		if s.CustomDomain != "" && s.CustomDomain == domain {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSites) List(_ context.Context) ([]repository.Site, error) {
	out := make([]repository.Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memSites) Create(_ context.Context, input repository.CreateSiteInput) (*repository.Site, error) {
	for _, s := range m.sites {
		if s.Slug == input.Slug {
			return nil, repository.ErrConflict
		}
	}
	s := &repository.Site{
		ID:           uuid.NewString(),
		Slug:         input.Slug,
		Name:         input.Name,
		CustomDomain: input.CustomDomain,
		Theme:        input.Theme,
		CreatedAt:    time.Now().UTC(),
	}
	m.sites[s.ID] = s
	return s, nil
}

func (m *memSites) Update(_ context.Context, id string, input repository.UpdateSiteInput) error {
	s, ok := m.sites[id]
	if !ok {
		return repository.ErrNotFound
	}
	if input.Name != nil {
		s.Name = *input.Name
	}
	if input.CustomDomain != nil {
		s.CustomDomain = *input.CustomDomain
	}
	if input.Theme != nil {
		s.Theme = input.Theme
	}
	return nil
}

type memUsers struct{ users map[string]*repository.User }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*repository.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	for _, u := range m.users {
		if u.Email == input.Email {
			return nil, repository.ErrConflict
		}
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = newHash
	return nil
}

type memMemberships struct {
	sites  *memSites
	grants map[string]map[string]bool // userID -> siteID
}

func (m *memMemberships) SitesForUser(_ context.Context, userID string) ([]repository.Site, error) {
	var out []repository.Site
	for siteID := range m.grants[userID] {
		if s, ok := m.sites.sites[siteID]; ok {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memMemberships) HasAccess(_ context.Context, userID, siteID string) (bool, error) {
	return m.grants[userID][siteID], nil
}

func (m *memMemberships) Grant(_ context.Context, userID, siteID string) error {
	if m.grants[userID] == nil {
		m.grants[userID] = make(map[string]bool)
	}
	m.grants[userID][siteID] = true
	return nil
}

func (m *memMemberships) Revoke(_ context.Context, userID, siteID string) error {
	delete(m.grants[userID], siteID)
	return nil
}

type memTokens struct {
	tokens map[string]*repository.APIToken
}

func (m *memTokens) GetByHash(_ context.Context, hash string) (*repository.APIToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokens) ListBySite(_ context.Context, siteID string) ([]repository.APIToken, error) {
	var out []repository.APIToken
	for _, t := range m.tokens {
		if t.SiteID == siteID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTokens) Create(_ context.Context, input repository.CreateAPITokenInput) (*repository.APIToken, error) {
	t := &repository.APIToken{
		ID:        uuid.NewString(),
		SiteID:    input.SiteID,
		Label:     input.Label,
		TokenHash: input.TokenHash,
		IsActive:  true,
		ExpiresAt: input.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	m.tokens[t.ID] = t
	return t, nil
}

func (m *memTokens) Revoke(_ context.Context, siteID, id string) error {
	t, ok := m.tokens[id]
	if !ok || t.SiteID != siteID {
		return repository.ErrNotFound
	}
	t.IsActive = false
	return nil
}

func (m *memTokens) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	if t, ok := m.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	return nil
}

type memProperties struct {
	props map[string]*repository.Property
}

func (m *memProperties) GetByID(_ context.Context, siteID, id string) (*repository.Property, error) {
	if p, ok := m.props[id]; ok && p.SiteID == siteID {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memProperties) List(_ context.Context, siteID string, _ repository.ListPropertiesFilter) ([]repository.Property, error) {
	var out []repository.Property
	for _, p := range m.props {
		if p.SiteID == siteID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memProperties) Create(_ context.Context, siteID string, input repository.CreatePropertyInput) (*repository.Property, error) {
	p := &repository.Property{
		ID:     uuid.NewString(),
		SiteID: siteID,
		Name:   input.Name,
		Kind:   input.Kind,
		Status: repository.PropertyActive,
	}
	m.props[p.ID] = p
	return p, nil
}

func (m *memProperties) Update(_ context.Context, siteID, id string, input repository.UpdatePropertyInput) error {
	p, ok := m.props[id]
	if !ok || p.SiteID != siteID {
		return repository.ErrNotFound
	}
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	return nil
}

func (m *memProperties) Delete(_ context.Context, siteID, id string) error {
	p, ok := m.props[id]
	if !ok || p.SiteID != siteID {
		return repository.ErrNotFound
	}
	delete(m.props, id)
	return nil
}

type memUnits struct {
	units map[string]*repository.Unit
	props *memProperties
}

func (m *memUnits) GetByID(_ context.Context, siteID, id string) (*repository.Unit, error) {
	if u, ok := m.units[id]; ok && u.SiteID == siteID {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUnits) List(_ context.Context, siteID string, _ repository.ListUnitsFilter) ([]repository.Unit, error) {
	var out []repository.Unit
	for _, u := range m.units {
		if u.SiteID == siteID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUnits) Create(_ context.Context, siteID string, input repository.CreateUnitInput) (*repository.Unit, error) {
	u := &repository.Unit{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		PropertyID: input.PropertyID,
		Label:      input.Label,
		RentCents:  input.RentCents,
		Status:     repository.UnitVacant,
	}
	m.units[u.ID] = u
	return u, nil
}

func (m *memUnits) Update(_ context.Context, siteID, id string, input repository.UpdateUnitInput) error {
	u, ok := m.units[id]
	if !ok || u.SiteID != siteID {
		return repository.ErrNotFound
	}
	if input.Label != nil {
		u.Label = *input.Label
	}
	if input.Status != nil {
		u.Status = *input.Status
	}
	return nil
}

func (m *memUnits) Delete(_ context.Context, siteID, id string) error {
	u, ok := m.units[id]
	if !ok || u.SiteID != siteID {
		return repository.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

func (m *memUnits) SetStatus(_ context.Context, siteID, id, status string) error {
	u, ok := m.units[id]
	if !ok || u.SiteID != siteID {
		return repository.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m *memUnits) Listings(_ context.Context, siteID string, _, _ int) ([]repository.Listing, error) {
	var out []repository.Listing
	for _, u := range m.units {
		if u.SiteID != siteID || u.Status != repository.UnitListed {
			continue
		}
		p, ok := m.props.props[u.PropertyID]
		if !ok || p.Status != repository.PropertyActive {
			continue
		}
		out = append(out, repository.Listing{Unit: *u, Property: *p})
	}
	return out, nil
}

type memTenants struct{ tenants map[string]*repository.Tenant }

func (m *memTenants) GetByID(_ context.Context, siteID, id string) (*repository.Tenant, error) {
	if t, ok := m.tenants[id]; ok && t.SiteID == siteID {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memTenants) List(_ context.Context, siteID string, _ repository.ListTenantsFilter) ([]repository.Tenant, error) {
	var out []repository.Tenant
	for _, t := range m.tenants {
		if t.SiteID == siteID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTenants) Create(_ context.Context, siteID string, input repository.CreateTenantInput) (*repository.Tenant, error) {
	t := &repository.Tenant{
		ID:        uuid.NewString(),
		SiteID:    siteID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
	}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *memTenants) Update(_ context.Context, siteID, id string, _ repository.UpdateTenantInput) error {
	if t, ok := m.tenants[id]; ok && t.SiteID == siteID {
		return nil
	}
	return repository.ErrNotFound
}

func (m *memTenants) Delete(_ context.Context, siteID, id string) error {
	if t, ok := m.tenants[id]; ok && t.SiteID == siteID {
		delete(m.tenants, id)
		return nil
	}
	return repository.ErrNotFound
}

type memLeases struct{ leases map[string]*repository.Lease }

func (m *memLeases) GetByID(_ context.Context, siteID, id string) (*repository.Lease, error) {
	if l, ok := m.leases[id]; ok && l.SiteID == siteID {
		return l, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memLeases) List(_ context.Context, siteID string, filter repository.ListLeasesFilter) ([]repository.Lease, error) {
	var out []repository.Lease
	for _, l := range m.leases {
		if l.SiteID != siteID {
			continue
		}
		if filter.TenantID != "" && l.TenantID != filter.TenantID {
			continue
		}
		if filter.UnitID != "" && l.UnitID != filter.UnitID {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *memLeases) Create(_ context.Context, siteID string, input repository.CreateLeaseInput) (*repository.Lease, error) {
	l := &repository.Lease{
		ID:        uuid.NewString(),
		SiteID:    siteID,
		UnitID:    input.UnitID,
		TenantID:  input.TenantID,
		StartsOn:  input.StartsOn,
		EndsOn:    input.EndsOn,
		RentCents: input.RentCents,
		Status:    repository.LeaseDraft,
		Checklist: repository.DefaultChecklist(),
	}
	m.leases[l.ID] = l
	return l, nil
}

func (m *memLeases) Update(_ context.Context, siteID, id string, _ repository.UpdateLeaseInput) error {
	if l, ok := m.leases[id]; ok && l.SiteID == siteID {
		return nil
	}
	return repository.ErrNotFound
}

func (m *memLeases) Delete(_ context.Context, siteID, id string) error {
	if l, ok := m.leases[id]; ok && l.SiteID == siteID {
		delete(m.leases, id)
		return nil
	}
	return repository.ErrNotFound
}

func (m *memLeases) ActiveForUnit(_ context.Context, siteID, unitID string) (*repository.Lease, error) {
	for _, l := range m.leases {
		if l.SiteID == siteID && l.UnitID == unitID && l.Status == repository.LeaseActive {
			return l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memLeases) SetStatus(_ context.Context, siteID, id, status string) error {
	l, ok := m.leases[id]
	if !ok || l.SiteID != siteID {
		return repository.ErrNotFound
	}
	l.Status = status
	return nil
}

func (m *memLeases) SetChecklist(_ context.Context, siteID, id string, items []repository.ChecklistItem) error {
	l, ok := m.leases[id]
	if !ok || l.SiteID != siteID {
		return repository.ErrNotFound
	}
	l.Checklist = items
	return nil
}

type memLeads struct{ leads map[string]*repository.Lead }

func (m *memLeads) GetByID(_ context.Context, siteID, id string) (*repository.Lead, error) {
	if l, ok := m.leads[id]; ok && l.SiteID == siteID {
		return l, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memLeads) List(_ context.Context, siteID string, _ repository.ListLeadsFilter) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, l := range m.leads {
		if l.SiteID == siteID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLeads) Create(_ context.Context, siteID string, input repository.CreateLeadInput) (*repository.Lead, error) {
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
	m.leads[l.ID] = l
	return l, nil
}

func (m *memLeads) SetStatus(_ context.Context, siteID, id, status string) error {
	l, ok := m.leads[id]
	if !ok || l.SiteID != siteID {
		return repository.ErrNotFound
	}
	l.Status = status
	return nil
}

func (m *memLeads) SetScreening(_ context.Context, siteID, id string, s *repository.Screening) error {
	l, ok := m.leads[id]
	if !ok || l.SiteID != siteID {
		return repository.ErrNotFound
	}
	l.Screening = s
	return nil
}

func (m *memLeads) Delete(_ context.Context, siteID, id string) error {
	if l, ok := m.leads[id]; ok && l.SiteID == siteID {
		delete(m.leads, id)
		return nil
	}
	return repository.ErrNotFound
}

type memWorkOrders struct {
	orders map[string]*repository.WorkOrder
}

func (m *memWorkOrders) GetByID(_ context.Context, siteID, id string) (*repository.WorkOrder, error) {
	if o, ok := m.orders[id]; ok && o.SiteID == siteID {
		return o, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memWorkOrders) List(_ context.Context, siteID string, _ repository.ListWorkOrdersFilter) ([]repository.WorkOrder, error) {
	var out []repository.WorkOrder
	for _, o := range m.orders {
		if o.SiteID == siteID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memWorkOrders) Create(_ context.Context, siteID string, input repository.CreateWorkOrderInput) (*repository.WorkOrder, error) {
	o := &repository.WorkOrder{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		PropertyID: input.PropertyID,
		UnitID:     input.UnitID,
		Title:      input.Title,
		Priority:   input.Priority,
		Status:     repository.WorkOrderOpen,
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *memWorkOrders) Update(_ context.Context, siteID, id string, _ repository.UpdateWorkOrderInput) error {
	if o, ok := m.orders[id]; ok && o.SiteID == siteID {
		return nil
	}
	return repository.ErrNotFound
}

func (m *memWorkOrders) Delete(_ context.Context, siteID, id string) error {
	if o, ok := m.orders[id]; ok && o.SiteID == siteID {
		delete(m.orders, id)
		return nil
	}
	return repository.ErrNotFound
}

type memImages struct{ images map[string]*repository.Image }

func (m *memImages) GetByID(_ context.Context, siteID, id string) (*repository.Image, error) {
	if img, ok := m.images[id]; ok && img.SiteID == siteID {
		return img, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memImages) ListByEntity(_ context.Context, siteID, entityType, entityID string) ([]repository.Image, error) {
	var out []repository.Image
	for _, img := range m.images {
		if img.SiteID == siteID && img.EntityType == entityType && img.EntityID == entityID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *memImages) Create(_ context.Context, siteID string, input repository.CreateImageInput) (*repository.Image, error) {
	img := &repository.Image{
		ID:          uuid.NewString(),
		SiteID:      siteID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		ObjectKey:   input.ObjectKey,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		SortOrder:   input.SortOrder,
	}
	m.images[img.ID] = img
	return img, nil
}

func (m *memImages) Delete(_ context.Context, siteID, id string) error {
	if img, ok := m.images[id]; ok && img.SiteID == siteID {
		delete(m.images, id)
		return nil
	}
	return repository.ErrNotFound
}

func (m *memImages) Reorder(_ context.Context, siteID, entityType, entityID string, orderedIDs []string) error {
	for i, id := range orderedIDs {
		if img, ok := m.images[id]; ok && img.SiteID == siteID {
			img.SortOrder = i
		}
	}
	return nil
}

type memDocuments struct {
	docs map[string]*repository.Document
}

func (m *memDocuments) GetByID(_ context.Context, siteID, id string) (*repository.Document, error) {
	if d, ok := m.docs[id]; ok && d.SiteID == siteID {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memDocuments) ListByEntity(_ context.Context, siteID, entityType, entityID string) ([]repository.Document, error) {
	var out []repository.Document
	for _, d := range m.docs {
		if d.SiteID == siteID && d.EntityType == entityType && d.EntityID == entityID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDocuments) Create(_ context.Context, siteID string, input repository.CreateDocumentInput) (*repository.Document, error) {
	d := &repository.Document{
		ID:          uuid.NewString(),
		SiteID:      siteID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		ObjectKey:   input.ObjectKey,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
	}
	m.docs[d.ID] = d
	return d, nil
}

func (m *memDocuments) Delete(_ context.Context, siteID, id string) error {
	if d, ok := m.docs[id]; ok && d.SiteID == siteID {
		delete(m.docs, id)
		return nil
	}
	return repository.ErrNotFound
}

// ─── test environment ───

type testEnv struct {
	router  http.Handler
	auth    *auth.Service
	repos   *repos.Repositories
	siteA   *repository.Site
	siteB   *repository.Site
	manager *repository.User
}

const testPassword = "correct horse battery staple"

// Small upload cap so the boundary cases stay cheap to exercise.
const testMaxUpload = 4096

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.LoadFromEnv()
	cfg.Session.Secret = strings.Repeat("s", 48)
	cfg.Server.CORSAllowedOrigins = []string{"https://app.example.test"}
	cfg.Server.DefaultSite = ""
	cfg.Uploads.MaxBytes = testMaxUpload

	sites := &memSites{sites: make(map[string]*repository.Site)}
	props := &memProperties{props: make(map[string]*repository.Property)}
	units := &memUnits{units: make(map[string]*repository.Unit), props: props}
	r := &repos.Repositories{
		Sites:       sites,
		Users:       &memUsers{users: make(map[string]*repository.User)},
		Memberships: &memMemberships{sites: sites, grants: make(map[string]map[string]bool)},
		Tokens:      &memTokens{tokens: make(map[string]*repository.APIToken)},
		Properties:  props,
		Units:       units,
		Tenants:     &memTenants{tenants: make(map[string]*repository.Tenant)},
		Leases:      &memLeases{leases: make(map[string]*repository.Lease)},
		Leads:       &memLeads{leads: make(map[string]*repository.Lead)},
		WorkOrders:  &memWorkOrders{orders: make(map[string]*repository.WorkOrder)},
		Images:      &memImages{images: make(map[string]*repository.Image)},
		Documents:   &memDocuments{docs: make(map[string]*repository.Document)},
	}

	ctx := context.Background()

	siteA, err := r.Sites.Create(ctx, repository.CreateSiteInput{Slug: "north", Name: "North PM"})
	require.NoError(t, err)
	siteB, err := r.Sites.Create(ctx, repository.CreateSiteInput{Slug: "south", Name: "South PM"})
	require.NoError(t, err)

	hash, err := password.Hash(password.Default, testPassword)
	require.NoError(t, err)
	manager, err := r.Users.Create(ctx, repository.CreateUserInput{
		Email:        "manager@north.test",
		PasswordHash: hash,
		Name:         "North Manager",
		Role:         repository.RoleManager,
	})
	require.NoError(t, err)
	require.NoError(t, r.Memberships.Grant(ctx, manager.ID, siteA.ID))

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	codec, err := sessioncookie.New(cfg.Session.Secret, ttl)
	require.NoError(t, err)
	authSvc := auth.New(r.Users, r.Sites, r.Memberships, r.Tokens, codec,
		cfg.Tokens.Salt, cfg.Tokens.Prefix)
	resolver := auth.NewResolver(r.Sites, "")

	media := &services.MediaService{
		Images:        r.Images,
		Documents:     r.Documents,
		Store:         fsstore.New(t.TempDir()),
		PublicBucket:  "public",
		PrivateBucket: "private",
		SignedURLTTL:  15 * time.Minute,
		VariantWidths: []int{320, 640},
	}
	router := NewRouter(Deps{
		Cfg:      cfg,
		Repos:    r,
		Auth:     authSvc,
		Resolver: resolver,
		Codec:    codec,
		Media:    media,
		Properties: &services.PropertyService{
			Properties: r.Properties, Units: r.Units, Leases: r.Leases, Media: media,
		},
		Leases: &services.LeaseService{Leases: r.Leases, Units: r.Units, Tenants: r.Tenants},
		Leads: &services.LeadService{
			Leads: r.Leads, Properties: r.Properties, Screening: integrations.ManualScreening{},
		},
		WorkOrders: &services.WorkOrderService{
			WorkOrders: r.WorkOrders, Properties: r.Properties, Units: r.Units,
		},
	})

	return &testEnv{
		router:  router,
		auth:    authSvc,
		repos:   r,
		siteA:   siteA,
		siteB:   siteB,
		manager: manager,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, &env
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":    "manager@north.test",
		"password": testPassword,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "atrium_session" {
			return ck
		}
	}
	t.Fatal("login response carries no session cookie")
	return nil
}

// ─── scenarios ───

func TestLoginScopesDataToSite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repos.Properties.Create(ctx, env.siteA.ID, repository.CreatePropertyInput{Name: "North Tower", Kind: "apartment"})
	require.NoError(t, err)
	_, err = env.repos.Properties.Create(ctx, env.siteB.ID, repository.CreatePropertyInput{Name: "South Plaza", Kind: "commercial"})
	require.NoError(t, err)

	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/properties/", nil)
	req.AddCookie(cookie)
	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var props []repository.Property
	require.NoError(t, json.Unmarshal(body.Data, &props))
	require.Len(t, props, 1)
	require.Equal(t, "North Tower", props[0].Name)
	require.Equal(t, env.siteA.ID, props[0].SiteID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{
		"email":    "manager@north.test",
		"password": "not it",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestFormLoginRedirectsToAdmin(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("email", "manager@north.test")
	form.Set("password", testPassword)
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Site", "north")
	rec, _ := env.do(t, req)

	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(t, "/admin", rec.Header().Get("Location"))
	var session *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "atrium_session" {
			session = ck
		}
	}
	require.NotNil(t, session, "redirect must carry the session cookie")
	require.NotEmpty(t, session.Value)

	// A bad form password gets the usual error envelope, not a redirect.
	form.Set("password", "not it")
	req = httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Site", "north")
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSiteSwitchDeniedWithoutMembership(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	body, _ := json.Marshal(map[string]string{"site_id": env.siteB.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/session/switch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Result().Cookies(), "refused switch must not reissue the cookie")

	// The original session still works.
	req = httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	req.AddCookie(cookie)
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSiteSwitchWithMembership(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.repos.Memberships.Grant(context.Background(), env.manager.ID, env.siteB.ID))
	cookie := env.login(t)

	body, _ := json.Marshal(map[string]string{"site_id": env.siteB.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/session/switch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec, env2 := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())

	var resp struct {
		Site repository.Site `json:"site"`
	}
	require.NoError(t, json.Unmarshal(env2.Data, &resp))
	require.Equal(t, env.siteB.ID, resp.Site.ID)
}

func TestRevokedSiteReanchorsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.repos.Memberships.Grant(ctx, env.manager.ID, env.siteB.ID))
	cookie := env.login(t)

	// Pull the rug out from under the active site.
	require.NoError(t, env.repos.Memberships.Revoke(ctx, env.manager.ID, env.siteA.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	req.AddCookie(cookie)
	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Result().Cookies(), "re-anchored session must reissue the cookie")

	var resp struct {
		Site repository.Site `json:"site"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Equal(t, env.siteB.ID, resp.Site.ID)
}

func TestSessionDiesWithLastMembership(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	require.NoError(t, env.repos.Memberships.Revoke(context.Background(), env.manager.ID, env.siteA.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	req.AddCookie(cookie)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/session/logout", nil)
		req.AddCookie(cookie)
		rec, _ := env.do(t, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		require.Equal(t, "", cookies[0].Value)
		require.Negative(t, cookies[0].MaxAge)
	}
}

func TestMissingImageIs404(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/images/"+uuid.NewString(), nil)
	req.AddCookie(cookie)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOversizedJSONBodyIs413(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	big := bytes.Repeat([]byte("x"), jsonBodyLimit+1)
	req := httptest.NewRequest(http.MethodPost, "/api/tenants/", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadFileSizeBoundary(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	upload := func(size int) (*httptest.ResponseRecorder, *envelope) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "lease-agreement.pdf")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("a"), size))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost,
			"/api/property/"+uuid.NewString()+"/documents", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(cookie)
		return env.do(t, req)
	}

	// A file of exactly the configured maximum goes through; the
	// multipart envelope around it must not count against the cap.
	rec, body := upload(testMaxUpload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc repository.Document
	require.NoError(t, json.Unmarshal(body.Data, &doc))
	require.Equal(t, int64(testMaxUpload), doc.SizeBytes)

	// One byte over is rejected.
	rec, _ = upload(testMaxUpload + 1)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAdminCreatedUserCanLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := password.Hash(password.Default, testPassword)
	require.NoError(t, err)
	root, err := env.repos.Users.Create(ctx, repository.CreateUserInput{
		Email:        "root@north.test",
		PasswordHash: hash,
		Role:         repository.RoleAdmin,
	})
	require.NoError(t, err)
	require.NoError(t, env.repos.Memberships.Grant(ctx, root.ID, env.siteA.ID))

	body, _ := json.Marshal(map[string]string{"email": "root@north.test", "password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	adminCookie := rec.Result().Cookies()[0]

	body, _ = json.Marshal(map[string]any{
		"email":    "newhire@north.test",
		"password": "first-day-password",
		"name":     "New Hire",
		"role":     "staff",
		"site_ids": []string{env.siteA.ID},
	})
	req = httptest.NewRequest(http.MethodPost, "/api/admin/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(adminCookie)
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The stored hash must verify against the submitted password.
	body, _ = json.Marshal(map[string]string{"email": "newhire@north.test", "password": "first-day-password"})
	req = httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUnauthenticatedStaffAPI(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/properties/", nil)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffRoleCannotDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := password.Hash(password.Default, testPassword)
	require.NoError(t, err)
	staff, err := env.repos.Users.Create(ctx, repository.CreateUserInput{
		Email:        "staff@north.test",
		PasswordHash: hash,
		Role:         repository.RoleStaff,
	})
	require.NoError(t, err)
	require.NoError(t, env.repos.Memberships.Grant(ctx, staff.ID, env.siteA.ID))

	prop, err := env.repos.Properties.Create(ctx, env.siteA.ID, repository.CreatePropertyInput{Name: "Keep Me", Kind: "house"})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"email": "staff@north.test", "password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Result().Cookies()[0]

	req = httptest.NewRequest(http.MethodDelete, "/api/properties/"+prop.ID, nil)
	req.AddCookie(cookie)
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicIntakeReachesStaffList(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{
		"name":    "Ada Prospect",
		"email":   "ada@example.test",
		"message": "Looking for a two-bedroom.",
	})
	req := httptest.NewRequest(http.MethodPost, "/public/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "north")
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cookie := env.login(t)
	req = httptest.NewRequest(http.MethodGet, "/api/leads/", nil)
	req.AddCookie(cookie)
	rec, respBody := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var leads []repository.Lead
	require.NoError(t, json.Unmarshal(respBody.Data, &leads))
	require.Len(t, leads, 1)
	require.Equal(t, "Ada Prospect", leads[0].Name)
	require.Equal(t, repository.LeadNew, leads[0].Status)
}

func TestPublicIntakeUnknownSite(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"name": "Nobody", "email": "n@example.test"})
	req := httptest.NewRequest(http.MethodPost, "/public/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Site", "missing")
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerTokenListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	prop, err := env.repos.Properties.Create(ctx, env.siteA.ID, repository.CreatePropertyInput{Name: "North Tower", Kind: "apartment"})
	require.NoError(t, err)
	unit, err := env.repos.Units.Create(ctx, env.siteA.ID, repository.CreateUnitInput{PropertyID: prop.ID, Label: "3C", RentCents: 120_000})
	require.NoError(t, err)
	require.NoError(t, env.repos.Units.SetStatus(ctx, env.siteA.ID, unit.ID, repository.UnitListed))

	plaintext, _, err := env.auth.MintAPIToken(ctx, env.siteA, "integration", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var listings []repository.Listing
	require.NoError(t, json.Unmarshal(body.Data, &listings))
	require.Len(t, listings, 1)
	require.Equal(t, "3C", listings[0].Unit.Label)

	// Garbage token is rejected.
	req = httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer atr_north_deadbeef")
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/properties/", nil)
	req.Header.Set("Origin", "https://app.example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestIDOnResponses(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec, _ := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-supplied ID is echoed back.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec, _ = env.do(t, req)
	require.Equal(t, "req-abc-123", rec.Header().Get("X-Request-ID"))
}
