package middleware // reusable HTTP middleware for authentication and authorization

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkarlovs/shopcore/internal/model"
	"github.com/dkarlovs/shopcore/internal/utils"
)

// principalKey is the echo context key the authenticated principal is stored
// under.
const principalKey = "principal"

// UserLoader resolves a token subject to a current user record.
// *repository.UserRepo satisfies it.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RoleLoader loads a user's current roles with nested permissions.
// *repository.RoleRepo satisfies it.
type RoleLoader interface {
	ListForUser(ctx context.Context, userID uint64) ([]model.Role, error)
}

// Authenticate verifies a Bearer access token and attaches the resolved
// principal to the request context. A request without an Authorization
// header proceeds unauthenticated; whether that is acceptable is decided by
// the route's guard, not here. A present but invalid, expired or orphaned
// token is rejected with 401 regardless of the route.
//
// The principal's roles and permissions are re-loaded from the database
// rather than taken from the token claims, so role revocation and account
// deactivation take effect before the token expires, not just at next login.
func Authenticate(secret string, users UserLoader, roles RoleLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return next(c) // unauthenticated; guards decide
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			id, err := claims.SubjectID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			ctx := c.Request().Context()
			u, err := users.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			current, err := roles.ListForUser(ctx, u.ID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
			}

			c.Set(principalKey, model.Principal{UserID: u.ID, Email: u.Email, Roles: current})
			return next(c)
		}
	}
}

// CurrentPrincipal returns the authenticated principal, if any.
func CurrentPrincipal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}
