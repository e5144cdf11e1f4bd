package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestParseIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"fid": "family-9",
		"exp": exp.Unix(),
	})

	ident, err := ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "family-9", ident.FamilyID)
	assert.WithinDuration(t, exp, ident.ExpiresAt, time.Second)
	assert.False(t, ident.Expired(time.Now()))
}

func TestParseIdentityRejectsGarbage(t *testing.T) {
	_, err := ParseIdentity("")
	require.Error(t, err)

	_, err = ParseIdentity("not-a-jwt")
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	ident, err := ParseIdentity(token)
	require.NoError(t, err)
	assert.True(t, ident.Expired(time.Now()))
}

func TestIdentityWithoutExpNeverExpiresLocally(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-1"})

	ident, err := ParseIdentity(token)
	require.NoError(t, err)
	assert.False(t, ident.Expired(time.Now().Add(100*24*time.Hour)))
}
