package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/security/password"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

// seedCmd loads a small demo portfolio for local development. It is
// idempotent on the site slug: rerunning against a seeded database is
// a no-op.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo data for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return seedDemo(ctx, repos.New(db))
		},
	}
}

func seedDemo(ctx context.Context, r *repos.Repositories) error {
	const slug = "demo"
	if _, err := r.Sites.GetBySlug(ctx, slug); err == nil {
		fmt.Println("demo site already present, nothing to do")
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	site, err := r.Sites.Create(ctx, repository.CreateSiteInput{
		Slug: slug,
		Name: "Demo Property Management",
		Theme: map[string]any{
			"primary_color": "#1f6f5c",
			"logo_url":      "/assets/demo-logo.svg",
		},
	})
	if err != nil {
		return err
	}

	hash, err := password.Hash(password.Default, "demo-password")
	if err != nil {
		return err
	}
	manager, err := r.Users.Create(ctx, repository.CreateUserInput{
		Email:        "manager@demo.test",
		PasswordHash: hash,
		Name:         "Demo Manager",
		Role:         repository.RoleManager,
	})
	if err != nil {
		return err
	}
	if err := r.Memberships.Grant(ctx, manager.ID, site.ID); err != nil {
		return err
	}

	prop, err := r.Properties.Create(ctx, site.ID, repository.CreatePropertyInput{
		Name:       "Maple Court",
		Address:    "12 Maple Street",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "62704",
		Kind:       "apartment",
	})
	if err != nil {
		return err
	}

	var firstUnit *repository.Unit
	for i, label := range []string{"1A", "1B", "2A", "2B"} {
		unit, err := r.Units.Create(ctx, site.ID, repository.CreateUnitInput{
			PropertyID: prop.ID,
			Label:      label,
			Bedrooms:   1 + i%2,
			Bathrooms:  1,
			Sqft:       550 + 120*(i%2),
			RentCents:  95_000 + int64(i%2)*25_000,
		})
		if err != nil {
			return err
		}
		if firstUnit == nil {
			firstUnit = unit
		}
	}

	tenant, err := r.Tenants.Create(ctx, site.ID, repository.CreateTenantInput{
		FirstName: "Rosa",
		LastName:  "Alvarez",
		Email:     "rosa@demo.test",
		Phone:     "+1-555-0100",
	})
	if err != nil {
		return err
	}

	starts := time.Now().UTC().Truncate(24 * time.Hour)
	lease, err := r.Leases.Create(ctx, site.ID, repository.CreateLeaseInput{
		UnitID:       firstUnit.ID,
		TenantID:     tenant.ID,
		StartsOn:     starts,
		EndsOn:       starts.AddDate(1, 0, 0),
		RentCents:    95_000,
		DepositCents: 95_000,
	})
	if err != nil {
		return err
	}

	propertyID := prop.ID
	if _, err := r.Leads.Create(ctx, site.ID, repository.CreateLeadInput{
		PropertyID: &propertyID,
		Name:       "Sam Porter",
		Email:      "sam@example.test",
		Message:    "Is unit 2A still available next month?",
	}); err != nil {
		return err
	}

	if _, err := r.WorkOrders.Create(ctx, site.ID, repository.CreateWorkOrderInput{
		PropertyID:  prop.ID,
		UnitID:      &firstUnit.ID,
		Title:       "Dripping kitchen faucet",
		Description: "Reported by the tenant during move-in inspection.",
		Priority:    repository.PriorityNormal,
	}); err != nil {
		return err
	}

	fmt.Printf("seeded site %q (login manager@demo.test / demo-password)\n", site.Slug)
	fmt.Printf("draft lease %s ready to activate\n", lease.ID)
	return nil
}
