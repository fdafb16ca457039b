package objstore

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey builds the canonical key for an uploaded file:
// {entityType}/{entityID}/{uniqueSuffix}-{sanitizedFilename}. The
// unique suffix keeps repeated uploads of the same filename from
// colliding or overwriting each other.
func ObjectKey(entityType, entityID, filename string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return path.Join(entityType, entityID, fmt.Sprintf("%s-%s", suffix, SanitizeFilename(filename)))
}

// EntityPrefix is the key prefix holding every object of one entity,
// used for bulk deletes when the entity itself is removed.
func EntityPrefix(entityType, entityID string) string {
	return path.Join(entityType, entityID) + "/"
}

// SanitizeFilename lowercases the name and strips everything outside
// [a-z0-9.-], mapping separators to dashes. An empty result becomes
// "file" so keys never end with a bare dash.
func SanitizeFilename(name string) string {
	name = strings.ToLower(path.Base(name))
	var b strings.Builder
	b.Grow(len(name))
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}

// VariantKey derives the key of a resized rendition from the original
// key, e.g. "property/p1/abc-kitchen.jpg" -> "property/p1/abc-kitchen_w640.jpg".
func VariantKey(key string, width int) string {
	ext := path.Ext(key)
	return fmt.Sprintf("%s_w%d%s", strings.TrimSuffix(key, ext), width, ext)
}
