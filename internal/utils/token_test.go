package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlovs/shopcore/internal/model"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func testUser() model.User {
	return model.User{
		ID:    7,
		Email: "claims@x.com",
		Roles: []model.Role{
			{ID: 2, Name: "admin", Permissions: []model.Permission{
				{Resource: "products", Action: "delete"},
			}},
		},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken(testSecret, testUser(), 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)

	claims, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "claims@x.com", claims.Email)
	require.Len(t, claims.Roles, 1)
	assert.Equal(t, "admin", claims.Roles[0].Name)
	require.Len(t, claims.Roles[0].Permissions, 1)
	assert.Equal(t, "products", claims.Roles[0].Permissions[0].Resource)
	assert.Equal(t, "delete", claims.Roles[0].Permissions[0].Action)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, testUser(), 15*time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken("another-secret-that-is-also-32-chars", at.Token)
	assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	at, err := NewAccessToken(testSecret, testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, at.Token)
	assert.Error(t, err)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "not.a.jwt")
	assert.Error(t, err)
}

func TestClaimsPrincipal(t *testing.T) {
	at, err := NewAccessToken(testSecret, testUser(), time.Minute)
	require.NoError(t, err)
	claims, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)

	p := claims.Principal()
	assert.Equal(t, uint64(7), p.UserID)
	assert.Equal(t, "claims@x.com", p.Email)
	require.Len(t, p.Roles, 1)
	assert.Equal(t, "admin", p.Roles[0].Name)
}

func TestNewRefreshValue(t *testing.T) {
	a, err := NewRefreshValue()
	require.NoError(t, err)
	b, err := NewRefreshValue()
	require.NoError(t, err)

	assert.Len(t, a, 64, "32 random bytes hex-encoded")
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!", 4)
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "Secret123!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// A corrupt stored hash is an internal error, not a mismatch.
	_, err = VerifyPassword("not-a-bcrypt-hash", "Secret123!")
	assert.Error(t, err)
}
