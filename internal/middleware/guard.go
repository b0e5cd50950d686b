package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkarlovs/shopcore/internal/auth"
)

// RouteGuard declares the authorization requirements of a route. It is
// attached explicitly at route registration time; there is no annotation
// scanning. An empty Roles slice means no role restriction, an empty
// Permissions slice means no permission restriction, and a zero RouteGuard
// means the route is open to any authenticated principal.
type RouteGuard struct {
	Roles       []string // principal must hold at least one
	Permissions []string // principal must hold every one
}

// Require enforces a RouteGuard. The request must be authenticated; beyond
// that, a declared role set and a declared permission set must both pass.
// Declaring neither leaves the route restricted only by authentication.
func Require(g RouteGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if len(g.Roles) > 0 && !auth.HasAnyRole(p, g.Roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if len(g.Permissions) > 0 && !auth.HasAllPermissions(p, g.Permissions...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRoles is shorthand for a role-only guard.
func RequireRoles(names ...string) echo.MiddlewareFunc {
	return Require(RouteGuard{Roles: names})
}

// RequirePermissions is shorthand for a permission-only guard.
func RequirePermissions(names ...string) echo.MiddlewareFunc {
	return Require(RouteGuard{Permissions: names})
}
