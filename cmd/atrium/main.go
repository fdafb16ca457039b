package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atrium-pm/atrium/internal/bootstrap"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/store"
	"github.com/atrium-pm/atrium/internal/store/repos"
	migrations "github.com/atrium-pm/atrium/migrations/postgres"

	_ "github.com/atrium-pm/atrium/internal/objstore/fsstore"
	_ "github.com/atrium-pm/atrium/internal/objstore/s3store"
	_ "github.com/atrium-pm/atrium/internal/store/pg"
)

var configPath string

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "atrium",
	})
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (store.Database, error) {
	return store.Open(ctx, store.Config{
		Provider:        cfg.Storage.Provider,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

func main() {
	root := &cobra.Command{
		Use:           "atrium",
		Short:         "Multi-tenant property management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to YAML config")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(adminCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
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

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			if action == "down" {
				return store.MigrateDown(ctx, db, migrations.FS)
			}
			return store.MigrateUp(ctx, db, migrations.FS)
		},
	}
	return cmd
}

func adminCmd() *cobra.Command {
	var email, password string

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the first admin user and default site",
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

			return bootstrap.EnsureAdmin(ctx, bootstrap.Options{
				Repos:         repos.New(db),
				DefaultSite:   cfg.Server.DefaultSite,
				SkipPrompt:    email != "" && password != "",
				AdminEmail:    email,
				AdminPassword: password,
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "admin email (prompts when omitted)")
	create.Flags().StringVar(&password, "password", "", "admin password (prompts when omitted)")

	cmd := &cobra.Command{Use: "admin", Short: "Administrative bootstrap"}
	cmd.AddCommand(create)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Manage site API tokens"}

	var siteSlug, label, ttl string
	create := &cobra.Command{
		Use:   "create",
		Short: "Mint an API token; the plaintext is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if siteSlug == "" || label == "" {
				return errors.New("--site and --label are required")
			}
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

			r := repos.New(db)
			site, err := r.Sites.GetBySlug(ctx, siteSlug)
			if err != nil {
				return fmt.Errorf("site %q: %w", siteSlug, err)
			}

			var expiresAt *time.Time
			if ttl != "" {
				d, err := time.ParseDuration(ttl)
				if err != nil {
					return fmt.Errorf("parse --ttl: %w", err)
				}
				t := time.Now().UTC().Add(d)
				expiresAt = &t
			}

			svc, _, err := buildAuthService(cfg, r)
			if err != nil {
				return err
			}
			plaintext, rec, err := svc.MintAPIToken(ctx, site, label, expiresAt)
			if err != nil {
				return err
			}
			fmt.Printf("token: %s\nid:    %s\n", plaintext, rec.ID)
			fmt.Println("Store the token now; only its hash is kept.")
			return nil
		},
	}
	create.Flags().StringVar(&siteSlug, "site", "", "site slug the token is scoped to")
	create.Flags().StringVar(&label, "label", "", "human-readable token label")
	create.Flags().StringVar(&ttl, "ttl", "", "lifetime, e.g. 720h (empty = no expiry)")

	var listSite string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a site's API tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listSite == "" {
				return errors.New("--site is required")
			}
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

			r := repos.New(db)
			site, err := r.Sites.GetBySlug(ctx, listSite)
			if err != nil {
				return fmt.Errorf("site %q: %w", listSite, err)
			}
			tokens, err := r.Tokens.ListBySite(ctx, site.ID)
			if err != nil {
				return err
			}
			for _, t := range tokens {
				state := "active"
				if !t.IsActive {
					state = "revoked"
				}
				expiry := "never"
				if t.ExpiresAt != nil {
					expiry = t.ExpiresAt.Format(time.RFC3339)
				}
				fmt.Printf("%s  %-24s %-8s expires=%s\n", t.ID, t.Label, state, expiry)
			}
			return nil
		},
	}
	list.Flags().StringVar(&listSite, "site", "", "site slug")

	var revokeSite, revokeID string
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if revokeSite == "" || revokeID == "" {
				return errors.New("--site and --id are required")
			}
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

			r := repos.New(db)
			site, err := r.Sites.GetBySlug(ctx, revokeSite)
			if err != nil {
				return fmt.Errorf("site %q: %w", revokeSite, err)
			}
			if err := r.Tokens.Revoke(ctx, site.ID, revokeID); err != nil {
				return err
			}
			fmt.Println("revoked")
			return nil
		},
	}
	revoke.Flags().StringVar(&revokeSite, "site", "", "site slug")
	revoke.Flags().StringVar(&revokeID, "id", "", "token id")

	cmd.AddCommand(create, list, revoke)
	return cmd
}
