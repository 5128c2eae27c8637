package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-gate-api/internal/config"
	"github.com/noah-isme/campus-gate-api/internal/handler"
	"github.com/noah-isme/campus-gate-api/internal/middleware"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	StudentHandler        *handler.StudentHandler
	GatePassHandler       *handler.GatePassHandler
	AdminActivityHandler  *handler.AdminActivityHandler
	AdminDirectoryHandler *handler.AdminDirectoryHandler
	AccountHandler        *handler.AccountHandler
	HealthProbes          map[string]handler.HealthProbe
	JWTMiddleware         fiber.Handler
	// OTPRateLimit caps login code requests per client per minute. Zero uses the default.
	OTPRateLimit int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	otpLimit := deps.OTPRateLimit
	if otpLimit <= 0 {
		otpLimit = 5
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), jwtMiddleware, middleware.RateLimit("otp", otpLimit, time.Minute))
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}

	if deps.GatePassHandler != nil {
		deps.GatePassHandler.Register(api.Group("/gate", jwtMiddleware))
	}

	if deps.AdminActivityHandler == nil && deps.AdminDirectoryHandler == nil && deps.AccountHandler == nil {
		return
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
	if deps.AdminDirectoryHandler != nil {
		deps.AdminDirectoryHandler.Register(admin)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.Register(admin.Group("/accounts"))
	}
}
