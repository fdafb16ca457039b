// Package password hashes login passwords with PBKDF2-SHA256 and a
// per-record random salt, serialized as a PHC-style string.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

type Params struct {
	Iterations int
	KeyLen     int
}

var Default = Params{Iterations: 100_000, KeyLen: 32}

// Hash returns a PHC string: $pbkdf2-sha256$i=<N>$<saltB64>$<dkB64>
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(plain), salt, p.Iterations, p.KeyLen, sha256.New)
	return fmt.Sprintf("$pbkdf2-sha256$i=%d$%s$%s",
		p.Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify reports whether plain matches the stored PHC string. Any
// malformed input verifies as false, never as an error.
func Verify(plain, phc string) bool {
	parts := strings.Split(phc, "$")
	// ["", "pbkdf2-sha256", "i=N", salt, dk]
	if len(parts) != 5 || parts[0] != "" || parts[1] != "pbkdf2-sha256" {
		return false
	}
	iterStr, ok := strings.CutPrefix(parts[2], "i=")
	iters, err := strconv.Atoi(iterStr)
	if !ok || err != nil || iters < 1 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(dkStored) == 0 {
		return false
	}
	key := pbkdf2.Key([]byte(plain), salt, iters, len(dkStored), sha256.New)
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}
