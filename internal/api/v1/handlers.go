package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/Offertly/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPlans lists the plan catalog
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return controllers.HandlePlans(c)
}

// PostAuthRegister creates a new account
func (s *APIServer) PostAuthRegister(c *fiber.Ctx) error {
	return controllers.HandleAuthRegister(c)
}

// PostAuthLogin authenticates an account
func (s *APIServer) PostAuthLogin(c *fiber.Ctx) error {
	return controllers.HandleAuthLogin(c)
}

// PostAuthLogout destroys the session
func (s *APIServer) PostAuthLogout(c *fiber.Ctx) error {
	return controllers.HandleAuthLogout(c)
}

// GetAccount returns the authenticated user's account incl. usage.
// Security is enforced via session middleware attached in RegisterHandlers.
func (s *APIServer) GetAccount(c *fiber.Ctx) error {
	return controllers.HandleUserAccount(c)
}

// PostBillingCheckout starts the external payment flow
func (s *APIServer) PostBillingCheckout(c *fiber.Ctx) error {
	return controllers.HandleBillingCheckout(c)
}

// PostBillingResync forces a subscription status refresh
func (s *APIServer) PostBillingResync(c *fiber.Ctx) error {
	return controllers.HandleBillingResync(c)
}

// PostOffer generates a new quote (entitlement and quota enforced)
func (s *APIServer) PostOffer(c *fiber.Ctx) error {
	return controllers.HandleOfferCreate(c)
}

// GetOffers lists the user's recent quotes
func (s *APIServer) GetOffers(c *fiber.Ctx) error {
	return controllers.HandleOfferList(c)
}

// GetOfferPDF streams a quote as PDF
func (s *APIServer) GetOfferPDF(c *fiber.Ctx) error {
	return controllers.HandleOfferPDF(c)
}
