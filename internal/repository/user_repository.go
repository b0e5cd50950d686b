package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dkarlovs/shopcore/internal/model"
)

// UserRepo persists rows of the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,name,auth_provider,auth_provider_id,auth_provider_data,is_active,created_at,updated_at"

// Create inserts a user and fills in its generated ID. An empty PasswordHash
// or provider field is stored as NULL. Returns ErrEmailExists on a duplicate
// email.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, auth_provider, auth_provider_id, auth_provider_data) VALUES (?,?,?,?,?,?)",
		u.Email, nullable(u.PasswordHash), u.Name,
		nullable(u.AuthProvider), nullable(u.AuthProviderID), nullable(u.AuthProviderData))
	if err != nil {
		if isDupKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.IsActive = true
	return nil
}

// GetByEmail fetches a user by normalized email. Returns sql.ErrNoRows when
// absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getWhere(ctx, "email=?", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

// GetByProvider fetches a user by its OAuth provider identity.
func (r *UserRepo) GetByProvider(ctx context.Context, provider, providerID string) (model.User, error) {
	return r.getWhere(ctx, "auth_provider=? AND auth_provider_id=?", provider, providerID)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, args ...any) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...)
	return scanUser(row)
}

// UpdateProviderProfile refreshes the cached display name and provider
// profile blob after an OAuth callback.
func (r *UserRepo) UpdateProviderProfile(ctx context.Context, id uint64, name, data string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, auth_provider_data=? WHERE id=?",
		name, nullable(data), id)
	return err
}

// LinkProvider attaches an OAuth identity to an existing account (account
// linking by email). The password hash, if any, is left untouched.
func (r *UserRepo) LinkProvider(ctx context.Context, id uint64, provider, providerID, data string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET auth_provider=?, auth_provider_id=?, auth_provider_data=? WHERE id=?",
		provider, providerID, nullable(data), id)
	return err
}

// SetActive flips the soft-deactivation flag. Users are never hard-deleted.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for the unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nullable converts "" to a SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                          model.User
		hash, provider, pid, pdata sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &provider, &pid, &pdata,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash.String
	u.AuthProvider = provider.String
	u.AuthProviderID = pid.String
	u.AuthProviderData = pdata.String
	return u, nil
}
