package model

import "time"

// User represents an application user record as stored in the `users` table.
// PasswordHash is empty for OAuth-only accounts (stored as NULL); such
// accounts carry an AuthProvider identity instead. An account is usable for
// login when it has at least one of the two.
//
// Roles are loaded through the user_roles join table and are only populated
// by the repository methods that ask for them; a zero-length slice on a
// freshly scanned row means "not loaded", not "no roles".
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email (unique, lowercased)
	PasswordHash     string    // users.password_hash, "" when NULL
	Name             string    // users.name
	AuthProvider     string    // users.auth_provider ("" for local accounts)
	AuthProviderID   string    // users.auth_provider_id (provider-scoped id)
	AuthProviderData string    // users.auth_provider_data (opaque profile JSON)
	IsActive         bool      // users.is_active
	Roles            []Role    // via user_roles
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// HasPassword reports whether the account can authenticate with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// Role is a named permission bundle from the `roles` table.
type Role struct {
	ID          uint64       // roles.id
	Name        string       // roles.name (unique)
	Description string       // roles.description
	Permissions []Permission // via role_permissions
}

// Permission is an atomic (resource, action) capability from the
// `permissions` table. The pair is unique.
type Permission struct {
	ID          uint64 // permissions.id
	Resource    string // permissions.resource
	Action      string // permissions.action
	Description string // permissions.description
}

// Name returns the canonical "resource:action" display form.
func (p Permission) Name() string { return p.Resource + ":" + p.Action }

// RefreshToken models a row in the `refresh_tokens` table. The raw token
// value is never stored; TokenHash holds a bcrypt digest of it, so matching a
// presented value means verifying it against each live row rather than
// looking the hash up by index.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash (bcrypt digest)
	ExpiresAt time.Time // refresh_tokens.expires_at
	IsRevoked bool      // refresh_tokens.is_revoked
	UserAgent string    // refresh_tokens.user_agent ("" when NULL)
	IPAddress string    // refresh_tokens.ip_address ("" when NULL)
	CreatedAt time.Time // refresh_tokens.created_at
}

// Principal is the authenticated identity attached to a request: the user id
// and email from the verified token plus the user's current roles and nested
// permissions, re-loaded from the database so revocations apply before the
// token expires.
type Principal struct {
	UserID uint64
	Email  string
	Roles  []Role
}

// PublicUser is the projection of a User returned to clients. It never
// carries the password hash or the raw provider profile blob.
type PublicUser struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public builds the client-safe projection of u.
func (u User) Public() PublicUser {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AuthProvider: u.AuthProvider,
		Roles:        names,
		CreatedAt:    u.CreatedAt,
	}
}
