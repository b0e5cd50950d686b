package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkarlovs/shopcore/internal/model"
)

func newTestTokenService(ttl time.Duration) (*TokenService, *memTokenStore, *memUserStore, *memRoleStore) {
	tokens := newMemTokenStore()
	users := newMemUserStore()
	roles := newMemRoleStore(model.Role{ID: 1, Name: "user"})
	svc := NewTokenService(tokens, users, roles, ttl, bcrypt.MinCost)
	return svc, tokens, users, roles
}

func createTestUser(t *testing.T, users *memUserStore, email string) model.User {
	t.Helper()
	u := model.User{Email: email, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &u))
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "round@x.com")
	ctx := context.Background()

	raw, exp, err := svc.Create(ctx, u.ID, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.True(t, exp.After(time.Now().UTC()))

	got, tok, err := svc.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.ID, tok.UserID)
}

func TestTokenValidateRevoked(t *testing.T) {
	svc, _, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "revoked@x.com")
	ctx := context.Background()

	raw, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, raw))

	_, _, err = svc.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenValidateExpired(t *testing.T) {
	// A negative TTL yields an expiry in the past, so the token must fail
	// validation immediately after creation.
	svc, _, users, _ := newTestTokenService(-time.Second)
	u := createTestUser(t, users, "expired@x.com")
	ctx := context.Background()

	raw, exp, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	assert.True(t, exp.Before(time.Now().UTC()))

	_, _, err = svc.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenNoDoubleGrant(t *testing.T) {
	svc, _, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "double@x.com")
	ctx := context.Background()

	raw1, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	raw2, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, raw1, raw2)

	// Both are independently valid.
	_, _, err = svc.Validate(ctx, raw1)
	assert.NoError(t, err)
	_, _, err = svc.Validate(ctx, raw2)
	assert.NoError(t, err)

	// Revoking one does not touch the other.
	require.NoError(t, svc.Revoke(ctx, raw1))
	_, _, err = svc.Validate(ctx, raw1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Validate(ctx, raw2)
	assert.NoError(t, err)
}

func TestTokenValidateUnknownValue(t *testing.T) {
	svc, _, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "unknown@x.com")
	ctx := context.Background()

	_, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)

	_, _, err = svc.Validate(ctx, "definitely-not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenValidateInactiveUser(t *testing.T) {
	svc, _, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "inactive@x.com")
	ctx := context.Background()

	raw, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)

	users.setActive(u.ID, false)
	_, _, err = svc.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenRevokeUnknownIsSilent(t *testing.T) {
	svc, _, _, _ := newTestTokenService(time.Hour)
	assert.NoError(t, svc.Revoke(context.Background(), "no-such-token"))
}

func TestTokenRevokeAll(t *testing.T) {
	svc, store, users, _ := newTestTokenService(time.Hour)
	u := createTestUser(t, users, "all@x.com")
	other := createTestUser(t, users, "other@x.com")
	ctx := context.Background()

	raw1, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	raw2, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	rawOther, _, err := svc.Create(ctx, other.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, u.ID))

	_, _, err = svc.Validate(ctx, raw1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Validate(ctx, raw2)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Validate(ctx, rawOther)
	assert.NoError(t, err, "other user's token must stay valid")
	assert.Equal(t, 1, store.countLive())
}

func TestTokenCleanupExpired(t *testing.T) {
	svc, store, users, _ := newTestTokenService(-time.Second)
	u := createTestUser(t, users, "cleanup@x.com")
	ctx := context.Background()

	_, _, err := svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, u.ID, "", "")
	require.NoError(t, err)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, store.countLive())

	n, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
