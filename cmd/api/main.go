package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devtracker/accounts-api/internal/api"
	"github.com/devtracker/accounts-api/internal/api/handler"
	"github.com/devtracker/accounts-api/internal/core/service"
	"github.com/devtracker/accounts-api/internal/infrastructure/db/mongo"
	"github.com/devtracker/accounts-api/internal/infrastructure/db/redis"
	"github.com/devtracker/accounts-api/internal/infrastructure/security"
	"github.com/devtracker/accounts-api/internal/pkg/config"
	"github.com/devtracker/accounts-api/pkg/logger"
)

//go:generate swag init --dir ../../ --generalInfo cmd/api/main.go --output ../../docs

const shutdownTimeout = 10 * time.Second

// @title                       Accounts API
// @version                     1.0
// @description                 User registration, login and account lifecycle.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// .env is optional; real environment variables take precedence.
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{Service: "accounts-api"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Caller:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found, relying on environment variables")
	}

	// --- MongoDB ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	userStore := mongo.NewUserRepository(db)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	// --- Redis ---
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	users := redis.NewCachedUserRepository(userStore, rdb, cfg.Redis.CacheTTL, logger.Component("cache"))

	// --- Services ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	authService := service.NewAuthService(users, hasher, tokens, logger.Component("auth"))
	userService := service.NewUserService(users, hasher, logger.Component("users"))

	if cfg.SeedAdmin() {
		created, err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin")
		}
		if !created {
			log.Info().Msg("admin account already present, skipping seed")
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		UserService: userService,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Logger: logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exiting")
}
