package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// DefaultSite is the slug used when neither session nor
		// hostname resolve to a site.
		DefaultSite string `yaml:"default_site"`
	} `yaml:"server"`

	Storage struct {
		// Provider selects the database adapter. Only "postgres" ships today;
		// the factory keeps the seam open.
		Provider string `yaml:"provider"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	ObjectStore struct {
		// Provider: "s3" (R2/S3-compatible) | "fs" (local disk, dev/tests)
		Provider string `yaml:"provider"`
		FS       struct {
			Root string `yaml:"root"`
		} `yaml:"fs"`
		S3 struct {
			Endpoint        string `yaml:"endpoint"`
			Region          string `yaml:"region"`
			AccessKeyID     string `yaml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key"`
			UsePathStyle    bool   `yaml:"use_path_style"`
		} `yaml:"s3"`
		// Buckets are split: images are anonymously servable, documents are not.
		PublicBucket  string `yaml:"public_bucket"`
		PrivateBucket string `yaml:"private_bucket"`
		SignedURLTTL  string `yaml:"signed_url_ttl"`
	} `yaml:"object_store"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Domain     string `yaml:"domain"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
		TTL        string `yaml:"ttl"`
		// Secret signs the session cookie (HS256). Required outside dev.
		Secret string `yaml:"secret"`
	} `yaml:"session"`

	Tokens struct {
		// Salt is the fixed per-deployment salt for API token derivation.
		Salt string `yaml:"salt"`
		// Prefix for newly minted tokens, e.g. "atr".
		Prefix string `yaml:"prefix"`
	} `yaml:"tokens"`

	Uploads struct {
		MaxBytes      int64 `yaml:"max_bytes"`
		VariantWidths []int `yaml:"variant_widths"`
	} `yaml:"uploads"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Intake struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"intake"`
	} `yaml:"rate"`

	SMTP struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Pass     string `yaml:"pass"`
		From     string `yaml:"from"`
		NotifyTo string `yaml:"notify_to"`
	} `yaml:"smtp"`

	Geo struct {
		Enabled   bool   `yaml:"enabled"`
		Endpoint  string `yaml:"endpoint"`
		UserAgent string `yaml:"user_agent"`
		CacheTTL  string `yaml:"cache_ttl"`
	} `yaml:"geo"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

// LoadFromEnv builds a config without a YAML file (env-only deployments).
func LoadFromEnv() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "postgres"
	}
	if c.ObjectStore.Provider == "" {
		c.ObjectStore.Provider = "fs"
	}
	if c.ObjectStore.FS.Root == "" {
		c.ObjectStore.FS.Root = "data/objects"
	}
	if c.ObjectStore.SignedURLTTL == "" {
		c.ObjectStore.SignedURLTTL = "15m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "atrium_session"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "lax"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "168h" // 7d
	}
	if c.Tokens.Prefix == "" {
		c.Tokens.Prefix = "atr"
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = 10 << 20 // 10MB
	}
	if len(c.Uploads.VariantWidths) == 0 {
		c.Uploads.VariantWidths = []int{320, 640, 1280}
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Intake.Limit == 0 {
		c.Rate.Intake.Limit = 30
	}
	if c.Rate.Intake.Window == "" {
		c.Rate.Intake.Window = "1m"
	}
	if c.Geo.CacheTTL == "" {
		c.Geo.CacheTTL = "24h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ─── env helpers ───

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func getEnvInt(key string) (int, bool) {
	if v, ok := getEnvStr(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getEnvInt64(key string) (int64, bool) {
	if v, ok := getEnvStr(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if v, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("SERVER_DEFAULT_SITE"); ok {
		c.Server.DefaultSite = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_PROVIDER"); ok {
		c.Storage.Provider = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// OBJECT STORE
	if v, ok := getEnvStr("OBJECT_STORE_PROVIDER"); ok {
		c.ObjectStore.Provider = v
	}
	if v, ok := getEnvStr("OBJECT_STORE_FS_ROOT"); ok {
		c.ObjectStore.FS.Root = v
	}
	if v, ok := getEnvStr("S3_ENDPOINT"); ok {
		c.ObjectStore.S3.Endpoint = v
	}
	if v, ok := getEnvStr("S3_REGION"); ok {
		c.ObjectStore.S3.Region = v
	}
	if v, ok := getEnvStr("S3_ACCESS_KEY_ID"); ok {
		c.ObjectStore.S3.AccessKeyID = v
	}
	if v, ok := getEnvStr("S3_SECRET_ACCESS_KEY"); ok {
		c.ObjectStore.S3.SecretAccessKey = v
	}
	if v, ok := getEnvBool("S3_USE_PATH_STYLE"); ok {
		c.ObjectStore.S3.UsePathStyle = v
	}
	if v, ok := getEnvStr("OBJECT_STORE_PUBLIC_BUCKET"); ok {
		c.ObjectStore.PublicBucket = v
	}
	if v, ok := getEnvStr("OBJECT_STORE_PRIVATE_BUCKET"); ok {
		c.ObjectStore.PrivateBucket = v
	}
	if v, ok := getEnvStr("OBJECT_STORE_SIGNED_URL_TTL"); ok {
		c.ObjectStore.SignedURLTTL = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DOMAIN"); ok {
		c.Session.Domain = v
	}
	if v, ok := getEnvStr("SESSION_SAMESITE"); ok {
		c.Session.SameSite = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}

	// TOKENS
	if v, ok := getEnvStr("API_TOKEN_SALT"); ok {
		c.Tokens.Salt = v
	}
	if v, ok := getEnvStr("API_TOKEN_PREFIX"); ok {
		c.Tokens.Prefix = v
	}

	// UPLOADS
	if v, ok := getEnvInt64("UPLOADS_MAX_BYTES"); ok {
		c.Uploads.MaxBytes = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_INTAKE_LIMIT"); ok {
		c.Rate.Intake.Limit = v
	}
	if v, ok := getEnvStr("RATE_INTAKE_WINDOW"); ok {
		c.Rate.Intake.Window = v
	}

	// SMTP
	if v, ok := getEnvBool("SMTP_ENABLED"); ok {
		c.SMTP.Enabled = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_NOTIFY_TO"); ok {
		c.SMTP.NotifyTo = v
	}

	// GEO
	if v, ok := getEnvBool("GEO_ENABLED"); ok {
		c.Geo.Enabled = v
	}
	if v, ok := getEnvStr("GEO_ENDPOINT"); ok {
		c.Geo.Endpoint = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate checks cross-field requirements that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required")
	}
	if c.Session.Secret == "" && c.App.Env != "dev" {
		return fmt.Errorf("config: session.secret is required outside dev")
	}
	if c.Tokens.Salt == "" && c.App.Env != "dev" {
		return fmt.Errorf("config: tokens.salt is required outside dev")
	}
	if c.ObjectStore.Provider == "s3" {
		if c.ObjectStore.PublicBucket == "" || c.ObjectStore.PrivateBucket == "" {
			return fmt.Errorf("config: object_store public_bucket and private_bucket are required for s3")
		}
	}
	if _, err := c.SessionTTL(); err != nil {
		return fmt.Errorf("config: session.ttl: %w", err)
	}
	if _, err := c.SignedURLTTL(); err != nil {
		return fmt.Errorf("config: object_store.signed_url_ttl: %w", err)
	}
	return nil
}

// ─── parsed duration accessors ───

func (c *Config) SessionTTL() (time.Duration, error) {
	return time.ParseDuration(c.Session.TTL)
}

func (c *Config) SignedURLTTL() (time.Duration, error) {
	return time.ParseDuration(c.ObjectStore.SignedURLTTL)
}

func (c *Config) MemoryCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

func (c *Config) GeoCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Geo.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (c *Config) ConnMaxLifetime() time.Duration {
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) RateWindow(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
