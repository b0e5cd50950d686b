// Package service implements the authentication core: credential
// verification, session issuance (access + refresh token pairs), OAuth
// account resolution and refresh token lifecycle.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkarlovs/shopcore/internal/model"
	"github.com/dkarlovs/shopcore/internal/repository"
	"github.com/dkarlovs/shopcore/internal/utils"
)

// DefaultRoleName is assigned to every newly registered user when the role
// exists. A missing row is not an error: the user is simply created
// role-less.
const DefaultRoleName = "user"

var (
	// ErrInvalidCredentials covers every password-login failure the client
	// is allowed to see: unknown email, wrong password, inactive account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOAuthOnlyAccount distinguishes a login attempt against an account
	// that has no password, so the client can redirect to the provider.
	ErrOAuthOnlyAccount = errors.New("account uses oauth sign-in")
	// ErrAccountDisabled rejects a deactivated account at the OAuth
	// callback, matching what Login enforces for password accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrUnauthorized is the single outward-facing refresh/verify failure.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserStore is the persistence surface the auth service needs from the
// credential store. *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (model.User, error)
	UpdateProviderProfile(ctx context.Context, id uint64, name, data string) error
	LinkProvider(ctx context.Context, id uint64, provider, providerID, data string) error
}

// RoleStore is the role/permission surface. *repository.RoleRepo satisfies it.
type RoleStore interface {
	GetByName(ctx context.Context, name string) (model.Role, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Role, error)
	AssignToUser(ctx context.Context, userID, roleID uint64) error
}

// Session is an issued token pair plus the public view of its user.
type Session struct {
	User       model.User
	Access     utils.AccessToken
	RefreshRaw string
	RefreshExp time.Time
}

// AuthService validates identities and produces sessions.
type AuthService struct {
	users      UserStore
	roles      RoleStore
	tokens     *TokenService
	secret     string
	accessTTL  time.Duration
	bcryptCost int
}

func NewAuthService(users UserStore, roles RoleStore, tokens *TokenService, secret string, accessTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		tokens:     tokens,
		secret:     secret,
		accessTTL:  accessTTL,
		bcryptCost: bcryptCost,
	}
}

// Register creates a password account and returns a fresh session. Returns
// repository.ErrEmailExists when the email is taken.
func (s *AuthService) Register(ctx context.Context, email, password, name, userAgent, ip string) (Session, error) {
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	u := model.User{Email: email, PasswordHash: hash, Name: name}
	if err := s.users.Create(ctx, &u); err != nil {
		return Session{}, err
	}
	if err := s.assignDefaultRole(ctx, u.ID); err != nil {
		return Session{}, err
	}
	// Re-load roles with nested permissions; the claims embed both.
	u.Roles, err = s.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, u, userAgent, ip)
}

// Login verifies a password credential and returns a fresh session. Unknown
// email, wrong password and deactivated accounts all collapse to
// ErrInvalidCredentials; a password login against an OAuth-only account
// returns ErrOAuthOnlyAccount so the client can redirect.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !u.HasPassword() {
		return Session{}, ErrOAuthOnlyAccount
	}
	ok, err := utils.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok || !u.IsActive {
		return Session{}, ErrInvalidCredentials
	}
	// Roles feed the token claims, so load them before issuing.
	u.Roles, err = s.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, u, userAgent, ip)
}

// FindOrCreateOAuthUser resolves an OAuth callback profile to a local user:
// an exact provider identity match refreshes the cached profile; an email
// match links the provider identity to the existing account; otherwise a new
// password-less account is created. Safe to call repeatedly with the same
// profile, and a concurrent first-callback race that trips the unique email
// constraint is retried as a lookup. Deactivated accounts are refused with
// ErrAccountDisabled rather than handed a fresh session.
func (s *AuthService) FindOrCreateOAuthUser(ctx context.Context, provider, providerID, email, name, profile string) (model.User, error) {
	u, err := s.findOrCreateOAuth(ctx, provider, providerID, email, name, profile)
	if err != nil {
		return model.User{}, err
	}
	if !u.IsActive {
		return model.User{}, ErrAccountDisabled
	}
	u.Roles, err = s.roles.ListForUser(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *AuthService) findOrCreateOAuth(ctx context.Context, provider, providerID, email, name, profile string) (model.User, error) {
	u, err := s.users.GetByProvider(ctx, provider, providerID)
	switch {
	case err == nil:
		if err := s.users.UpdateProviderProfile(ctx, u.ID, name, profile); err != nil {
			return model.User{}, err
		}
		u.Name = name
		u.AuthProviderData = profile
		return u, nil
	case !errors.Is(err, sql.ErrNoRows):
		return model.User{}, err
	}

	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Account linking: attach the provider identity to the existing
		// local (or other-provider) account.
		if err := s.users.LinkProvider(ctx, u.ID, provider, providerID, profile); err != nil {
			return model.User{}, err
		}
		u.AuthProvider = provider
		u.AuthProviderID = providerID
		u.AuthProviderData = profile
		return u, nil
	case !errors.Is(err, sql.ErrNoRows):
		return model.User{}, err
	}

	u = model.User{
		Email:            email,
		Name:             name,
		AuthProvider:     provider,
		AuthProviderID:   providerID,
		AuthProviderData: profile,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost the race against a concurrent first callback for the
			// same identity; the other insert won, so resolve by lookup.
			return s.findOrCreateOAuth(ctx, provider, providerID, email, name, profile)
		}
		return model.User{}, err
	}
	if err := s.assignDefaultRole(ctx, u.ID); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// IssueSessionFor mints a token pair for an already-resolved user. Used by
// the OAuth callback, where identity was established by the provider.
func (s *AuthService) IssueSessionFor(ctx context.Context, u model.User, userAgent, ip string) (Session, error) {
	return s.issueSession(ctx, u, userAgent, ip)
}

// RefreshAccessToken validates a refresh token and mints a new access token
// for its owner. The refresh token itself is returned unchanged; refresh
// does not rotate it.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshRaw string) (Session, error) {
	u, t, err := s.tokens.Validate(ctx, refreshRaw)
	if err != nil {
		return Session{}, err
	}
	access, err := utils.NewAccessToken(s.secret, u, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, RefreshRaw: refreshRaw, RefreshExp: t.ExpiresAt}, nil
}

// Logout revokes the matching refresh token. A value matching nothing is
// still a success.
func (s *AuthService) Logout(ctx context.Context, refreshRaw string) error {
	return s.tokens.Revoke(ctx, refreshRaw)
}

// LogoutAll revokes every live refresh token the user owns.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAll(ctx, userID)
}

func (s *AuthService) assignDefaultRole(ctx context.Context, userID uint64) error {
	role, err := s.roles.GetByName(ctx, DefaultRoleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil // no default role seeded; user stays role-less
		}
		return err
	}
	return s.roles.AssignToUser(ctx, userID, role.ID)
}

func (s *AuthService) issueSession(ctx context.Context, u model.User, userAgent, ip string) (Session, error) {
	access, err := utils.NewAccessToken(s.secret, u, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	raw, exp, err := s.tokens.Create(ctx, u.ID, userAgent, ip)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, RefreshRaw: raw, RefreshExp: exp}, nil
}
