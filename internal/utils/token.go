package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkarlovs/shopcore/internal/model"
)

// refreshTokenBytes is the entropy of an opaque refresh token value. 32
// random bytes (256 bits) hex-encode to 64 characters, which stays under
// bcrypt's 72-byte input limit so the value can be digested directly.
const refreshTokenBytes = 32

// RoleClaim mirrors a role with its permission pairs inside the JWT payload.
type RoleClaim struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Permissions []PermissionClaim `json:"permissions"`
}

// PermissionClaim is a (resource, action) pair inside the JWT payload.
type PermissionClaim struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Claims is the signed payload of an access token: the subject user id (as
// the registered "sub"), the email, and a snapshot of the user's roles with
// nested permissions taken at issuance time.
type Claims struct {
	Email string      `json:"email"`
	Roles []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims embed
// the user's roles and nested permissions so the access decision functions
// can run without a database round trip.
func NewAccessToken(secret string, u model.User, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email: u.Email,
		Roles: roleClaims(u.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a serialized access
// token and returns its claims. Only HMAC-signed tokens are accepted.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SubjectID extracts the numeric user id from the registered subject claim.
func (c *Claims) SubjectID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// Principal converts the claims into the identity view the access decision
// functions evaluate. Used by tests and by callers that accept the token
// snapshot; the middleware prefers a fresh database load.
func (c *Claims) Principal() model.Principal {
	id, _ := c.SubjectID()
	p := model.Principal{UserID: id, Email: c.Email}
	for _, rc := range c.Roles {
		role := model.Role{ID: rc.ID, Name: rc.Name}
		for _, pc := range rc.Permissions {
			role.Permissions = append(role.Permissions, model.Permission{
				Resource: pc.Resource,
				Action:   pc.Action,
			})
		}
		p.Roles = append(p.Roles, role)
	}
	return p
}

// NewRefreshValue returns a cryptographically secure opaque token value. The
// raw string is handed to the client exactly once; only a bcrypt digest of it
// is ever persisted.
func NewRefreshValue() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func roleClaims(roles []model.Role) []RoleClaim {
	out := make([]RoleClaim, 0, len(roles))
	for _, r := range roles {
		rc := RoleClaim{ID: r.ID, Name: r.Name, Permissions: []PermissionClaim{}}
		for _, p := range r.Permissions {
			rc.Permissions = append(rc.Permissions, PermissionClaim{Resource: p.Resource, Action: p.Action})
		}
		out = append(out, rc)
	}
	return out
}
