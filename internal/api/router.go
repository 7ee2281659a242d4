package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/devtracker/accounts-api/docs"
	"github.com/devtracker/accounts-api/internal/api/handler"
	"github.com/devtracker/accounts-api/internal/api/middleware"
	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

const metricsSubsystem = "accounts"

// Dependencies are the collaborators the HTTP layer needs. Registerer and
// Gatherer default to the global Prometheus registry.
type Dependencies struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Checks      map[string]handler.Check
	Logger      zerolog.Logger
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.AccessLog(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService)
	requireAuth := middleware.Auth(deps.AuthService)

	// --- Public routes ---
	e.GET("/", handler.Root)
	e.POST("/users/", authHandler.Register)
	e.POST("/login", authHandler.Login)

	// --- Authenticated routes ---
	e.GET("/protected-route", authHandler.Protected, requireAuth)

	e.GET("/users/", userHandler.List, requireAuth, middleware.RBAC(domain.RoleAdmin))
	e.GET("/users/:id", userHandler.Get, requireAuth)
	e.GET("/user/:id", userHandler.Get, requireAuth)
	e.PATCH("/users/:id", userHandler.Patch, requireAuth)
	e.PUT("/user/:id", userHandler.Update, requireAuth)
	e.DELETE("/user/:id", userHandler.Delete, requireAuth)
	e.PATCH("/users/:id/activate", userHandler.Activate, requireAuth)
	e.PATCH("/users/:id/deactivate", userHandler.Deactivate, requireAuth)
	e.PATCH("/users/:id/promote", userHandler.Promote, requireAuth)

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
