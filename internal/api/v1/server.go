package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/internal/pkg/middleware"
)

// ServerInterface lists the operations of the public v1 API. The route
// shapes mirror public/docs/v1/openapi.yml.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetPlans(c *fiber.Ctx) error

	PostAuthRegister(c *fiber.Ctx) error
	PostAuthLogin(c *fiber.Ctx) error
	PostAuthLogout(c *fiber.Ctx) error

	GetAccount(c *fiber.Ctx) error
	PostBillingCheckout(c *fiber.Ctx) error
	PostBillingResync(c *fiber.Ctx) error

	PostOffer(c *fiber.Ctx) error
	GetOffers(c *fiber.Ctx) error
	GetOfferPDF(c *fiber.Ctx) error
}

// RegisterHandlers attaches the v1 API to the router. Quote generation sits
// behind the entitlement gate; everything account-shaped needs a session.
func RegisterHandlers(r fiber.Router, si ServerInterface) {
	r.Get("/ping", si.GetPing)
	r.Get("/plans", si.GetPlans)

	r.Post("/auth/register", si.PostAuthRegister)
	r.Post("/auth/login", si.PostAuthLogin)
	r.Post("/auth/logout", middleware.RequireAuth, si.PostAuthLogout)

	r.Get("/account", middleware.RequireAuth, si.GetAccount)
	r.Post("/billing/checkout", middleware.RequireAuth, si.PostBillingCheckout)
	r.Post("/billing/resync", middleware.RequireAuth, si.PostBillingResync)

	r.Post("/offers", middleware.RequireAuth, middleware.RequireEntitled, si.PostOffer)
	r.Get("/offers", middleware.RequireAuth, si.GetOffers)
	r.Get("/offers/:ref/pdf", middleware.RequireAuth, si.GetOfferPDF)
}
