// Package sessioncookie encodes the browser session as a compact HS256
// JWT carried in an HttpOnly cookie. There is no server-side session
// table; the cookie is the session.
package sessioncookie

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session payload: the signed-in user and their
// currently active site.
type Claims struct {
	UserID string `json:"uid"`
	SiteID string `json:"sid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// New returns a codec. Sessions expire ttl after issuance.
func New(secret string, ttl time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, errors.New("sessioncookie: secret must be at least 32 bytes")
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

// Encode mints a signed session token for the user on the given site.
func (c *Codec) Encode(userID, siteID string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		SiteID: siteID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the token and returns its claims. Any failure —
// wrong signature, wrong algorithm, expired, malformed — returns nil
// so callers treat the request as anonymous.
func (c *Codec) Decode(token string) *Claims {
	if token == "" {
		return nil
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" || claims.SiteID == "" {
		return nil
	}
	return &claims
}
