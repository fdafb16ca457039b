package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/cache"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/email"
	"github.com/atrium-pm/atrium/internal/geo"
	httpx "github.com/atrium-pm/atrium/internal/http"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/integrations"
	"github.com/atrium-pm/atrium/internal/metrics"
	"github.com/atrium-pm/atrium/internal/objstore"
	"github.com/atrium-pm/atrium/internal/observability/logger"
	"github.com/atrium-pm/atrium/internal/rate"
	"github.com/atrium-pm/atrium/internal/security/sessioncookie"
	"github.com/atrium-pm/atrium/internal/store/repos"
)

func buildAuthService(cfg *config.Config, r *repos.Repositories) (*auth.Service, *sessioncookie.Codec, error) {
	ttl, err := cfg.SessionTTL()
	if err != nil {
		return nil, nil, fmt.Errorf("parse session ttl: %w", err)
	}
	codec, err := sessioncookie.New(cfg.Session.Secret, ttl)
	if err != nil {
		return nil, nil, err
	}
	svc := auth.New(r.Users, r.Sites, r.Memberships, r.Tokens, codec,
		cfg.Tokens.Salt, cfg.Tokens.Prefix)
	return svc, codec, nil
}

func buildLimiters(cfg *config.Config, c cache.Client) (login, intake rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	loginWindow := cfg.RateWindow(cfg.Rate.Login.Window)
	intakeWindow := cfg.RateWindow(cfg.Rate.Intake.Window)

	if redis, ok := cache.Redis(c); ok {
		prefix := cfg.Cache.Redis.Prefix
		login = rate.NewRedisLimiter(redis, prefix+"rl:login", cfg.Rate.Login.Limit, loginWindow)
		intake = rate.NewRedisLimiter(redis, prefix+"rl:intake", cfg.Rate.Intake.Limit, intakeWindow)
		return login, intake
	}
	login = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWindow)
	intake = rate.NewMemoryLimiter(cfg.Rate.Intake.Limit, intakeWindow)
	return login, intake
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("database ping: %w", err)
			}

			blobs, err := objstore.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open object store: %w", err)
			}

			cacheClient, err := cache.New(cfg)
			if err != nil {
				return err
			}

			r := repos.New(db)
			authSvc, codec, err := buildAuthService(cfg, r)
			if err != nil {
				return err
			}
			resolver := auth.NewResolver(r.Sites, cfg.Server.DefaultSite)

			sender := email.FromConfig(cfg)
			notifier := email.NewNotifier(sender, cfg.SMTP.NotifyTo)

			signedTTL, err := cfg.SignedURLTTL()
			if err != nil {
				return fmt.Errorf("parse signed url ttl: %w", err)
			}
			media := &services.MediaService{
				Images:        r.Images,
				Documents:     r.Documents,
				Store:         blobs,
				PublicBucket:  cfg.ObjectStore.PublicBucket,
				PrivateBucket: cfg.ObjectStore.PrivateBucket,
				SignedURLTTL:  signedTTL,
				VariantWidths: cfg.Uploads.VariantWidths,
			}
			propertySvc := &services.PropertyService{
				Properties: r.Properties,
				Units:      r.Units,
				Leases:     r.Leases,
				Media:      media,
				Geocoder:   geo.New(cfg, cacheClient),
			}
			leaseSvc := &services.LeaseService{Leases: r.Leases, Units: r.Units, Tenants: r.Tenants}
			leadSvc := &services.LeadService{
				Leads:      r.Leads,
				Properties: r.Properties,
				Notifier:   notifier,
				Screening:  integrations.ManualScreening{},
			}
			workOrderSvc := &services.WorkOrderService{
				WorkOrders: r.WorkOrders,
				Properties: r.Properties,
				Units:      r.Units,
				Notifier:   notifier,
			}

			registry := prometheus.NewRegistry()
			if err := metrics.Register(registry); err != nil {
				return err
			}

			loginLimiter, intakeLimiter := buildLimiters(cfg, cacheClient)

			router := httpx.NewRouter(httpx.Deps{
				Cfg:           cfg,
				Repos:         r,
				Auth:          authSvc,
				Resolver:      resolver,
				Codec:         codec,
				Media:         media,
				Properties:    propertySvc,
				Leases:        leaseSvc,
				Leads:         leadSvc,
				WorkOrders:    workOrderSvc,
				LoginLimiter:  loginLimiter,
				IntakeLimiter: intakeLimiter,
				Registry:      registry,
				Ready:         db.Ping,
			})

			logger.L().Info("atrium starting",
				logger.String("env", cfg.App.Env),
				logger.String("addr", cfg.Server.Addr),
				logger.String("object_store", cfg.ObjectStore.Provider))

			return httpx.NewServer(cfg.Server.Addr, router).Run(ctx)
		},
	}
}
