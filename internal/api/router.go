package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/vaultkeeper/credvault/docs"
	"github.com/vaultkeeper/credvault/internal/api/handler"
	"github.com/vaultkeeper/credvault/internal/api/middleware"
	"github.com/vaultkeeper/credvault/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth   ports.AuthService
	Vault  ports.VaultService
	Health map[string]handler.HealthCheck
	Log    zerolog.Logger
	// Registerer receives the HTTP request metrics and Gatherer backs
	// /metrics. Nil means the default Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORS())
	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "credvault",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	credentialHandler := handler.NewCredentialHandler(deps.Vault)
	healthHandler := handler.NewHealthHandler(deps.Health)
	requireAuth := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	apiGroup := e.Group("/api")
	apiGroup.POST("/register", authHandler.Register)
	apiGroup.POST("/login", authHandler.Login)
	apiGroup.GET("/profile", authHandler.Profile, requireAuth)

	// --- Credential routes (bearer token required) ---
	creds := apiGroup.Group("/credentials", requireAuth)
	creds.GET("", credentialHandler.List)
	creds.POST("", credentialHandler.Create)
	creds.GET("/:id/secret", credentialHandler.Secret)
	creds.PUT("/:id", credentialHandler.Update)
	creds.DELETE("/:id", credentialHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
