package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atrium-pm/atrium/internal/domain/repository"
)

// ─── fakes ──────────────────────────────────────────────────────────

type fakeLeases struct {
	byID map[string]*repository.Lease
	seq  int
}

func (f *fakeLeases) get(siteID, id string) (*repository.Lease, error) {
	l, ok := f.byID[id]
	if !ok || l.SiteID != siteID {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeLeases) GetByID(_ context.Context, siteID, id string) (*repository.Lease, error) {
	l, err := f.get(siteID, id)
	if err != nil {
		return nil, err
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeases) List(context.Context, string, repository.ListLeasesFilter) ([]repository.Lease, error) {
	return nil, nil
}

func (f *fakeLeases) Create(_ context.Context, siteID string, in repository.CreateLeaseInput) (*repository.Lease, error) {
	f.seq++
	l := &repository.Lease{
		ID:        string(rune('a' + f.seq - 1)),
		SiteID:    siteID,
		UnitID:    in.UnitID,
		TenantID:  in.TenantID,
		StartsOn:  in.StartsOn,
		EndsOn:    in.EndsOn,
		RentCents: in.RentCents,
		Status:    repository.LeaseDraft,
		Checklist: repository.DefaultChecklist(),
	}
	f.byID[l.ID] = l
	return l, nil
}

func (f *fakeLeases) Update(_ context.Context, siteID, id string, _ repository.UpdateLeaseInput) error {
	_, err := f.get(siteID, id)
	return err
}

func (f *fakeLeases) Delete(_ context.Context, siteID, id string) error {
	if _, err := f.get(siteID, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeLeases) ActiveForUnit(_ context.Context, siteID, unitID string) (*repository.Lease, error) {
	for _, l := range f.byID {
		if l.SiteID == siteID && l.UnitID == unitID && l.Status == repository.LeaseActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLeases) SetStatus(_ context.Context, siteID, id, status string) error {
	l, err := f.get(siteID, id)
	if err != nil {
		return err
	}
	l.Status = status
	return nil
}

func (f *fakeLeases) SetChecklist(_ context.Context, siteID, id string, items []repository.ChecklistItem) error {
	l, err := f.get(siteID, id)
	if err != nil {
		return err
	}
	l.Checklist = items
	return nil
}

type fakeUnits struct {
	byID     map[string]*repository.Unit
	statuses map[string]string
}

func (f *fakeUnits) GetByID(_ context.Context, siteID, id string) (*repository.Unit, error) {
	u, ok := f.byID[id]
	if !ok || u.SiteID != siteID {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUnits) List(context.Context, string, repository.ListUnitsFilter) ([]repository.Unit, error) {
	return nil, nil
}

func (f *fakeUnits) Create(context.Context, string, repository.CreateUnitInput) (*repository.Unit, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUnits) Update(context.Context, string, string, repository.UpdateUnitInput) error {
	return errors.New("not implemented")
}

func (f *fakeUnits) Delete(context.Context, string, string) error { return nil }

func (f *fakeUnits) SetStatus(_ context.Context, _, id, status string) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeUnits) Listings(context.Context, string, int, int) ([]repository.Listing, error) {
	return nil, nil
}

type fakeTenants struct {
	ids map[string]bool
}

func (f *fakeTenants) GetByID(_ context.Context, _, id string) (*repository.Tenant, error) {
	if f.ids[id] {
		return &repository.Tenant{ID: id}, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTenants) List(context.Context, string, repository.ListTenantsFilter) ([]repository.Tenant, error) {
	return nil, nil
}

func (f *fakeTenants) Create(context.Context, string, repository.CreateTenantInput) (*repository.Tenant, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTenants) Update(context.Context, string, string, repository.UpdateTenantInput) error {
	return errors.New("not implemented")
}

func (f *fakeTenants) Delete(context.Context, string, string) error { return nil }

// ─── fixture ────────────────────────────────────────────────────────

func newLeaseService() (*LeaseService, *fakeLeases, *fakeUnits) {
	leases := &fakeLeases{byID: map[string]*repository.Lease{}}
	units := &fakeUnits{
		byID: map[string]*repository.Unit{
			"unit-1": {ID: "unit-1", SiteID: "site-a", Status: repository.UnitListed},
		},
		statuses: map[string]string{},
	}
	tenants := &fakeTenants{ids: map[string]bool{"ten-1": true}}
	return &LeaseService{Leases: leases, Units: units, Tenants: tenants}, leases, units
}

func validInput() repository.CreateLeaseInput {
	return repository.CreateLeaseInput{
		UnitID:    "unit-1",
		TenantID:  "ten-1",
		StartsOn:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:    time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC),
		RentCents: 150_000,
	}
}

// ─── tests ──────────────────────────────────────────────────────────

func TestLeaseCreate_DraftWithChecklist(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()

	lease, err := svc.Create(context.Background(), "site-a", validInput())
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if lease.Status != repository.LeaseDraft {
		t.Fatalf("status = %q, want draft", lease.Status)
	}
	if len(lease.Checklist) != 5 {
		t.Fatalf("checklist has %d items, want 5", len(lease.Checklist))
	}
}

func TestLeaseCreate_Invalid(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	in := validInput()
	in.EndsOn = in.StartsOn
	if _, err := svc.Create(ctx, "site-a", in); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("ends==starts err = %v", err)
	}

	in = validInput()
	in.UnitID = "unknown"
	if _, err := svc.Create(ctx, "site-a", in); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown unit err = %v", err)
	}

	in = validInput()
	in.TenantID = "unknown"
	if _, err := svc.Create(ctx, "site-a", in); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown tenant err = %v", err)
	}
}

func TestLeaseActivate_HappyPathSyncsUnit(t *testing.T) {
	t.Parallel()
	svc, _, units := newLeaseService()
	ctx := context.Background()

	lease, err := svc.Create(ctx, "site-a", validInput())
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Activate(ctx, "site-a", lease.ID)
	if err != nil {
		t.Fatalf("Activate err: %v", err)
	}
	if got.Status != repository.LeaseActive {
		t.Fatalf("status = %q, want active", got.Status)
	}
	if units.statuses["unit-1"] != repository.UnitOccupied {
		t.Fatalf("unit status = %q, want occupied", units.statuses["unit-1"])
	}
}

func TestLeaseActivate_SecondActiveLeaseConflicts(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	first, _ := svc.Create(ctx, "site-a", validInput())
	if _, err := svc.Activate(ctx, "site-a", first.ID); err != nil {
		t.Fatal(err)
	}

	second, _ := svc.Create(ctx, "site-a", validInput())
	if _, err := svc.Activate(ctx, "site-a", second.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestLeaseActivate_NonDraftConflicts(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())
	if _, err := svc.Activate(ctx, "site-a", lease.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Activate(ctx, "site-a", lease.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("double activate err = %v, want ErrConflict", err)
	}
}

func TestLeaseClose_FreesUnit(t *testing.T) {
	t.Parallel()
	svc, _, units := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())
	if _, err := svc.Activate(ctx, "site-a", lease.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Close(ctx, "site-a", lease.ID, repository.LeaseEnded)
	if err != nil {
		t.Fatalf("Close err: %v", err)
	}
	if got.Status != repository.LeaseEnded {
		t.Fatalf("status = %q, want ended", got.Status)
	}
	if units.statuses["unit-1"] != repository.UnitVacant {
		t.Fatalf("unit status = %q, want vacant", units.statuses["unit-1"])
	}
}

func TestLeaseClose_InvalidTransitions(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())

	// Draft cannot be closed.
	if _, err := svc.Close(ctx, "site-a", lease.ID, repository.LeaseEnded); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("close draft err = %v, want ErrConflict", err)
	}
	// Closing status must be ended or terminated.
	if _, err := svc.Close(ctx, "site-a", lease.ID, "paused"); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("bad status err = %v, want ErrInvalidInput", err)
	}
}

func TestLeaseChecklist_ToggleItem(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())
	got, err := svc.SetChecklistItem(ctx, "site-a", lease.ID, "deposit", true)
	if err != nil {
		t.Fatalf("SetChecklistItem err: %v", err)
	}
	var item *repository.ChecklistItem
	for i := range got.Checklist {
		if got.Checklist[i].Key == "deposit" {
			item = &got.Checklist[i]
		}
	}
	if item == nil || !item.Done || item.CompletedAt == nil {
		t.Fatalf("deposit item = %+v", item)
	}

	if _, err := svc.SetChecklistItem(ctx, "site-a", lease.ID, "nope", true); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("unknown key err = %v, want ErrInvalidInput", err)
	}
}

func TestLeaseDelete_DraftOnly(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())
	if _, err := svc.Activate(ctx, "site-a", lease.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "site-a", lease.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("delete active err = %v, want ErrConflict", err)
	}
}

func TestLease_SiteScoping(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLeaseService()
	ctx := context.Background()

	lease, _ := svc.Create(ctx, "site-a", validInput())

	// Another site cannot see or move the lease.
	if _, err := svc.Activate(ctx, "site-b", lease.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-site activate err = %v, want ErrNotFound", err)
	}
}
