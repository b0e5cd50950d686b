package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkarlovs/shopcore/internal/model"
	"github.com/dkarlovs/shopcore/internal/utils"
)

// RefreshTokenStore is the persistence surface the token service needs.
// *repository.TokenRepo satisfies it.
type RefreshTokenStore interface {
	Store(ctx context.Context, t *model.RefreshToken) error
	ListActive(ctx context.Context) ([]model.RefreshToken, error)
	Revoke(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenService issues, validates and revokes opaque refresh tokens. Raw
// values are bcrypt-hashed before storage, so validation cannot look a token
// up by its hash: it walks the currently-live rows and verifies the presented
// value against each one, linear in the number of live sessions.
type TokenService struct {
	tokens   RefreshTokenStore
	users    UserStore
	roles    RoleStore
	ttl      time.Duration
	hashCost int
}

func NewTokenService(tokens RefreshTokenStore, users UserStore, roles RoleStore, ttl time.Duration, hashCost int) *TokenService {
	return &TokenService{tokens: tokens, users: users, roles: roles, ttl: ttl, hashCost: hashCost}
}

// Create mints a new opaque refresh token for the user, persists its bcrypt
// digest with the configured expiry and optional device metadata, and returns
// the raw value. The raw value is returned exactly once and is not
// recoverable afterwards.
func (s *TokenService) Create(ctx context.Context, userID uint64, userAgent, ipAddress string) (string, time.Time, error) {
	raw, err := utils.NewRefreshValue()
	if err != nil {
		return "", time.Time{}, err
	}
	hash, err := utils.HashPassword(raw, s.hashCost)
	if err != nil {
		return "", time.Time{}, err
	}
	t := model.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.tokens.Store(ctx, &t); err != nil {
		return "", time.Time{}, err
	}
	return raw, t.ExpiresAt, nil
}

// Validate resolves a raw refresh token to its owning user, with roles and
// permissions loaded. Every failure mode (no match, expired, revoked, owner
// missing or deactivated) collapses to ErrUnauthorized so callers cannot
// distinguish which condition failed. Unexpected hash-comparison errors are
// propagated, not treated as a failed match.
func (s *TokenService) Validate(ctx context.Context, raw string) (model.User, model.RefreshToken, error) {
	match, err := s.findByRaw(ctx, raw)
	if err != nil {
		return model.User{}, model.RefreshToken{}, err
	}
	if match == nil {
		return model.User{}, model.RefreshToken{}, ErrUnauthorized
	}
	// The query already filters expired rows; re-check against the wall
	// clock in case the row was read just before its expiry instant.
	if time.Now().UTC().After(match.ExpiresAt) {
		return model.User{}, model.RefreshToken{}, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, match.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.RefreshToken{}, ErrUnauthorized
		}
		return model.User{}, model.RefreshToken{}, err
	}
	if !u.IsActive {
		return model.User{}, model.RefreshToken{}, ErrUnauthorized
	}
	u.Roles, err = s.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return model.User{}, model.RefreshToken{}, err
	}
	return u, *match, nil
}

// Revoke marks the stored token matching the raw value as revoked. A value
// that matches nothing is silently accepted: logout must always succeed from
// the caller's perspective.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	match, err := s.findByRaw(ctx, raw)
	if err != nil || match == nil {
		return err
	}
	return s.tokens.Revoke(ctx, match.ID)
}

// RevokeAll revokes every live token owned by the user.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// CleanupExpired prunes rows past expiry and returns the count removed.
// Revocation never deletes rows, so without this sweep the table grows
// without bound.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

// findByRaw scans the live rows for one whose digest verifies against the
// raw value. Returns nil without error when nothing matches.
func (s *TokenService) findByRaw(ctx context.Context, raw string) (*model.RefreshToken, error) {
	candidates, err := s.tokens.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		ok, err := utils.VerifyPassword(candidates[i].TokenHash, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			return &candidates[i], nil
		}
	}
	return nil, nil
}
