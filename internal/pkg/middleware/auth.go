package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/internal/pkg/entitlements"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in session and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireEntitled ensures the logged-in user holds an active or trialing
// subscription. Everyone else gets 402 with a pointer to the plans.
func RequireEntitled(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !entitlements.Entitled(usercontext.GetUserContext(c).SubscriptionStatus) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "subscription_required",
			"message": "an active subscription is required, see /plans",
		})
	}
	return c.Next()
}
