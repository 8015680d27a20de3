package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Issue("user-1", RoleClient)
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-1", Role: RoleClient}, id)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).Issue("user-1", RoleAdmin)
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue("user-1", RoleClient)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Role: Role("superuser"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Verify(token)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestVerifyWithoutSecret(t *testing.T) {
	_, err := NewIssuer("", 0).Verify("anything")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = NewIssuer("", 0).Issue("u", RoleAdmin)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("Password123", hash))
	assert.False(t, VerifyPassword("password123", hash))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: RoleAdmin})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, id.Role)
}
