package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-queue-service/internal/api/http/handlers"
	"github.com/spec-kit/token-queue-service/internal/auth"
	"github.com/spec-kit/token-queue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tokens         *handlers.TokensHandler
	Counters       *handlers.CountersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	token := app.Group("/token")
	token.Post("/create", cfg.Tokens.Create)
	token.Get("/by-guid/:guid", cfg.Tokens.GetByGuid)
	token.Get("/display-status", cfg.Tokens.DisplayStatus)
	token.Post("/search", cfg.Tokens.Search)

	handler := app.Group("/handler", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin, domain.RoleHandler))
	handler.Post("/call-next", cfg.Counters.CallNext)
	handler.Post("/update-status", cfg.Counters.UpdateStatus)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin, domain.RoleHandler))
	admin.Get("/tokens", cfg.Admin.ListTokens)
}
