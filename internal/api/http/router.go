package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/villa-web/internal/api/http/handlers"
	"github.com/spec-kit/villa-web/internal/guard"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Pages        *handlers.PagesHandler
	Villas       *handlers.VillasHandler
	Guard        *GuardMiddleware
	LoginLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	loginLimiter := cfg.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	pages := app.Group("", cfg.Guard.Handle)
	pages.Get(guard.PathBrowse, cfg.Villas.Browse)
	pages.Get(guard.PathLogin, cfg.Auth.LoginPage)
	pages.Post(guard.PathLogin, loginLimiter, cfg.Auth.Login)
	pages.Post("/logout", cfg.Auth.Logout)
	pages.Get("/session", cfg.Auth.Session)

	pages.Get(guard.PathHome, cfg.Pages.Home)
	pages.Get(guard.PathProfile, cfg.Pages.Profile)

	pages.Get(guard.PathAdmin, cfg.Pages.Dashboard)
	pages.Get(guard.PathVillaNew, cfg.Villas.NewVilla)
	pages.Post(guard.PathVillaNew, cfg.Villas.CreateVilla)
	pages.Get(guard.PathVillaDetail, cfg.Villas.VillaDetail)
}
