// Package token generates and hashes API tokens. The plaintext form is
// "atr_<sitehint>_<hex32>"; only a PBKDF2-SHA256 digest derived with a
// fixed deployment salt is ever stored, so lookup by digest stays a
// simple equality query.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPrefix tags every token so leaked strings are recognizable
	// in logs and secret scanners.
	DefaultPrefix = "atr"

	// Iterations for the stored digest. The random part carries 128
	// bits of entropy, so the count matters less than for passwords,
	// but a single knob for both keeps the deployment story simple.
	Iterations = 100_000

	keyLen      = 32
	randomBytes = 16
)

// Generate returns a fresh plaintext token for the given site. The
// site hint is cosmetic, a lowercase slug fragment aiding operators;
// authorization always comes from the stored record, never the hint.
func Generate(prefix, siteSlug string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", prefix, hint(siteSlug), hex.EncodeToString(buf)), nil
}

// DeriveHash maps a plaintext token to its stored digest. Same token
// and salt always produce the same digest.
func DeriveHash(plaintext, salt string) string {
	dk := pbkdf2.Key([]byte(plaintext), []byte(salt), Iterations, keyLen, sha256.New)
	return base64.RawURLEncoding.EncodeToString(dk)
}

// hint compacts a site slug into a short recognizable fragment.
func hint(slug string) string {
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.ToLower(slug))
	if slug == "" {
		return "site"
	}
	if len(slug) > 8 {
		slug = slug[:8]
	}
	return slug
}
