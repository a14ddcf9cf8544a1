package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/api/http/handlers"
	"github.com/spec-kit/schedulo/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Imports        *handlers.ImportHandler
	Faculty        *handlers.FacultyHandler
	Allocations    *handlers.AllocationHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   fiber.Handler
	ForgotLimiter  fiber.Handler
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authn := cfg.AuthMiddleware.Handle
	staff := auth.StaffOnly()
	adminOnly := auth.AdminOnly()

	authGroup := app.Group("/auth")
	authGroup.Post("/login", passthrough(cfg.LoginLimiter), cfg.Auth.Login)
	authGroup.Post("/forgot-password", passthrough(cfg.ForgotLimiter), cfg.Auth.ForgotPassword)
	authGroup.Post("/verify-otp-only", passthrough(cfg.LoginLimiter), cfg.Auth.VerifyOTPOnly)
	authGroup.Post("/verify-otp", passthrough(cfg.LoginLimiter), cfg.Auth.VerifyOTP)
	authGroup.Post("/register", authn, adminOnly, cfg.Auth.Register)
	authGroup.Get("/me", authn, auth.Authenticated(), cfg.Auth.Me)
	authGroup.Post("/reset-password", authn, auth.Authenticated(), cfg.Auth.ResetPassword)

	upload := app.Group("/upload", authn, staff)
	upload.Post("/faculty-credentials/preview", cfg.Imports.Preview)
	upload.Post("/faculty-credentials", cfg.Imports.CommitCredentials)
	upload.Post("/faculty", cfg.Imports.CommitFaculty)

	app.Get("/faculty-credentials", authn, staff, cfg.Faculty.List)
	app.Patch("/faculty-credentials/:id/status", authn, adminOnly, cfg.Faculty.SetStatus)

	app.Post("/allocations/notify", authn, staff, cfg.Allocations.Notify)

	app.Get("/ws", cfg.AuthMiddleware.HandleQueryToken, cfg.Realtime.Upgrade, cfg.Realtime.Serve())
}

func passthrough(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
