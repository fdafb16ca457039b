package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP fields ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// ─── Business fields ───

// SiteID tags an entry with the active site (tenant).
func SiteID(v string) zap.Field { return zap.String("site_id", v) }

func SiteSlug(v string) zap.Field { return zap.String("site_slug", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

func PropertyID(v string) zap.Field { return zap.String("property_id", v) }

func UnitID(v string) zap.Field { return zap.String("unit_id", v) }

func LeaseID(v string) zap.Field { return zap.String("lease_id", v) }

func LeadID(v string) zap.Field { return zap.String("lead_id", v) }

func TokenID(v string) zap.Field { return zap.String("token_id", v) }

func ObjectKey(v string) zap.Field { return zap.String("object_key", v) }

func Bucket(v string) zap.Field { return zap.String("bucket", v) }

// Email should be used sparingly in prod.
func Email(v string) zap.Field { return zap.String("email", v) }

// ─── System fields ───

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// ─── Generic fields ───

func Count(v int) zap.Field { return zap.Int("count", v) }

func ID(v string) zap.Field { return zap.String("id", v) }

func Key(v string) zap.Field { return zap.String("key", v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
