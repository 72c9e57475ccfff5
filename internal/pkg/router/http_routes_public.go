package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/app/controllers"
	"github.com/ManuelReschke/Offertly/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Health and flash are plain endpoints outside the CSRF surface
	app.Get("/healthz", controllers.HandleHealthz)
	app.Get("/flash", loggedInMiddleware, controllers.HandleFlashGet)

	// Billing notification endpoint: token-gated in the controller, no CSRF.
	// GET and POST both work so simple provider-side hooks can call it.
	app.Get("/billing/webhook", controllers.HandleBillingNotify)
	app.Post("/billing/webhook", controllers.HandleBillingNotify)

	// Landing back from the external payment flow
	app.Get("/billing/return", middleware.RequireAuth, controllers.HandleBillingReturn)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}
