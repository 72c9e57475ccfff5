package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/Offertly/app/controllers"
	"github.com/ManuelReschke/Offertly/internal/pkg/env"
	"github.com/ManuelReschke/Offertly/internal/pkg/middleware"
)

func (h HttpRouter) registerWebRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// API clients authenticate per request; the notification endpoint
			// is token-gated and called by machines
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/billing/webhook")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleLanding)
	group.Get("/plans", loggedInMiddleware, controllers.HandlePlans)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/account", middleware.RequireAuth, controllers.HandleUserAccount)
	group.Post("/billing/checkout", middleware.RequireAuth, controllers.HandleBillingCheckout)
	group.Post("/billing/resync", middleware.RequireAuth, controllers.HandleBillingResync)
}
