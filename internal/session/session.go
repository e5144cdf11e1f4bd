package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Identity is the subset of token claims the client cares about. The agent
// never verifies the signature; the backend is the authority and rejects bad
// tokens at the handshake. Parsing locally lets us fail fast on tokens that
// are malformed or already expired instead of burning a connect attempt.
type Identity struct {
	UserID    string
	FamilyID  string
	ExpiresAt time.Time
}

// ParseIdentity extracts the user identity from a bearer token without
// signature verification.
func ParseIdentity(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, fmt.Errorf("empty token")
	}

	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("malformed token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected claims type")
	}

	var ident Identity
	ident.UserID, _ = claims["sub"].(string)
	ident.FamilyID, _ = claims["fid"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		ident.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return ident, nil
}

// Expired reports whether the identity's token has passed its expiry.
// Identities without an exp claim never expire locally.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
