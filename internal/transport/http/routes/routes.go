package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/infra/config"
	"github.com/karahan-cpu/martek-marina/internal/infra/telemetry"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/handlers"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/middleware"
	"github.com/karahan-cpu/martek-marina/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Access    *usecase.AccessService
	Pedestals *usecase.PedestalService
	Control   *usecase.ControlService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Verifier    port.IdentityVerifier
	Telemetry   *telemetry.Provider
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSAllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	} else {
		r.Use(metrics.Handler())
	}

	checks := make([]handlers.ReadinessCheck, 0, 2)

	if deps.Database != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "database", Check: deps.Database.Ping})
	}

	if deps.Cache != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Check: deps.Cache.HealthCheck})
	}

	healthHandler := handlers.NewHealthHandler(checks...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.RequireAuth(deps.Verifier)

	api := r.Group("/api/v1")
	{
		pedestalGroup := api.Group("/pedestals")
		pedestalGroup.Use(authMiddleware)

		accessHandler := handlers.NewAccessHandler(deps.Services.Access, deps.Telemetry)
		accessHandler.RegisterRoutes(pedestalGroup, buildVerifyMiddlewares(deps)...)

		pedestalHandler := handlers.NewPedestalHandler(deps.Services.Pedestals, deps.Services.Control)
		pedestalHandler.RegisterRoutes(pedestalGroup)

		adminGroup := api.Group("/admin/pedestals")
		adminGroup.Use(authMiddleware, middleware.RequireAdmin())
		pedestalHandler.RegisterAdminRoutes(adminGroup)
	}

	return r
}

func buildVerifyMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.VerifyMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "verify",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
