// Package router defines how HTTP routes are registered for the API. Guard
// requirements are declared here, next to the routes they protect, as
// explicit RouteGuard values read by the middleware.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dkarlovs/shopcore/internal/config"
	"github.com/dkarlovs/shopcore/internal/handler"
	"github.com/dkarlovs/shopcore/internal/middleware"
	"github.com/dkarlovs/shopcore/internal/repository"
)

// Deps are the wired dependencies the routes need.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	JWTSecret string
	Users     *repository.UserRepo
	Roles     *repository.RoleRepo
	Auth      *handler.AuthHandler
	OAuth     *handler.OAuthHandler
	Products  *handler.ProductHandler
	RoleAdmin *handler.RoleHandler
}

// Register wires every route. All /api/v1 routes pass through the bearer
// authentication middleware; routes without a guard stay reachable
// unauthenticated, guarded routes require a principal and the declared
// roles/permissions.
func Register(e *echo.Echo, deps Deps) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/healthz", handler.Health(deps.DB))

	api := e.Group("/api/v1")
	api.Use(middleware.Authenticate(deps.JWTSecret, deps.Users, deps.Roles))
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), deps.Redis))

	// Session lifecycle; open routes.
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/refresh", deps.Auth.Refresh)
	api.POST("/auth/logout", deps.Auth.Logout)
	api.GET("/auth/:provider", deps.OAuth.Start)
	api.GET("/auth/:provider/callback", deps.OAuth.Callback)

	// Any authenticated principal; empty guard means no role or permission
	// restriction beyond authentication itself.
	api.POST("/auth/logout-all", deps.Auth.LogoutAll, middleware.Require(middleware.RouteGuard{}))
	api.GET("/me", deps.Auth.Me, middleware.Require(middleware.RouteGuard{}))

	// Catalog. Reads are open to any authenticated principal; writes need
	// the matching product permissions, delete additionally the admin role.
	api.GET("/products", deps.Products.List, middleware.Require(middleware.RouteGuard{}))
	api.GET("/products/:id", deps.Products.Get, middleware.Require(middleware.RouteGuard{}))
	api.POST("/products", deps.Products.Create,
		middleware.Require(middleware.RouteGuard{Permissions: []string{"products:create"}}))
	api.PUT("/products/:id", deps.Products.Update,
		middleware.Require(middleware.RouteGuard{Permissions: []string{"products:update"}}))
	api.DELETE("/products/:id", deps.Products.Delete,
		middleware.Require(middleware.RouteGuard{
			Roles:       []string{"admin"},
			Permissions: []string{"products:delete"},
		}))

	// Role administration.
	admin := api.Group("/admin", middleware.RequireRoles("admin"))
	admin.GET("/roles", deps.RoleAdmin.List)
	admin.POST("/users/:id/roles", deps.RoleAdmin.Assign)
	admin.DELETE("/users/:id/roles/:roleID", deps.RoleAdmin.Remove)
}
