package repository

import (
	"context"
	"database/sql"

	"github.com/dkarlovs/shopcore/internal/model"
)

// TokenRepo persists refresh tokens. Only bcrypt digests of the raw values
// are stored, so there is no lookup-by-hash: validation lists the live rows
// and the service verifies the presented value against each candidate.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row and fills in its generated ID.
func (r *TokenRepo) Store(ctx context.Context, t *model.RefreshToken) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, user_agent, ip_address) VALUES (?,?,?,?,?)",
		t.UserID, t.TokenHash, t.ExpiresAt, nullable(t.UserAgent), nullable(t.IPAddress))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListActive returns all non-revoked, non-expired tokens. The result is the
// candidate set for hash verification; row count equals the number of live
// sessions across all users.
func (r *TokenRepo) ListActive(ctx context.Context) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,token_hash,expires_at,is_revoked,created_at FROM refresh_tokens WHERE is_revoked=0 AND expires_at > UTC_TIMESTAMP()")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RefreshToken
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Revoke marks a single token row as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_revoked=1 WHERE id=? AND is_revoked=0", id)
	return err
}

// RevokeAllForUser revokes every live token owned by the user ("log out
// everywhere").
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_revoked=1 WHERE user_id=? AND is_revoked=0", userID)
	return err
}

// DeleteExpired removes rows past their expiry and returns the count. Rows
// are never deleted on a request path; the periodic sweep calls this.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
