package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dkarlovs/shopcore/internal/config"
	"github.com/dkarlovs/shopcore/internal/database"
	"github.com/dkarlovs/shopcore/internal/handler"
	"github.com/dkarlovs/shopcore/internal/oauth"
	"github.com/dkarlovs/shopcore/internal/repository"
	"github.com/dkarlovs/shopcore/internal/router"
	"github.com/dkarlovs/shopcore/internal/service"
	"github.com/dkarlovs/shopcore/internal/worker"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)

	tokenSvc := service.NewTokenService(tokens, users, roles, cfg.RefreshTTL, cfg.TokenHashCost)
	authSvc := service.NewAuthService(users, roles, tokenSvc, cfg.JWTSecret, cfg.AccessTTL, cfg.BcryptCost)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}

	providers := oauth.NewRegistryFromEnv()
	for name := range providers {
		log.Printf("oauth provider enabled: %s", name)
	}

	cleanup := worker.StartTokenCleanup(tokenSvc)
	defer cleanup.Stop()

	e := echo.New()
	router.Register(e, router.Deps{
		DB:        db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		Roles:     roles,
		Auth:      handler.NewAuthHandler(authSvc),
		OAuth:     handler.NewOAuthHandler(authSvc, providers),
		Products:  handler.NewProductHandler(products),
		RoleAdmin: handler.NewRoleHandler(roles),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
