package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/billing"
	"github.com/ManuelReschke/Offertly/internal/pkg/database"
	"github.com/ManuelReschke/Offertly/internal/pkg/session"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

// NewBillingSync returns a middleware that opportunistically refreshes the
// cached subscription status once per session. The sync itself swallows
// provider errors, so a flaky provider never blocks the request.
func NewBillingSync(svc *billing.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if svc == nil || !usercontext.IsLoggedIn(c) {
			return c.Next()
		}
		if session.GetSessionValue(c, usercontext.KeyBillingSynced) == "1" {
			return c.Next()
		}

		db := database.GetDB()
		if db == nil {
			return c.Next()
		}
		var user models.User
		if err := db.First(&user, usercontext.GetUserID(c)).Error; err != nil {
			return c.Next()
		}

		svc.SyncSubscriptionStatus(c.Context(), &user)
		// mark before re-reading: even a failed sync should not be retried
		// on every request of this session
		_ = session.SetSessionValue(c, usercontext.KeyBillingSynced, "1")

		// refresh the context so this request already sees the synced state
		if err := db.First(&user, user.ID).Error; err == nil {
			c.Locals("USER_CONTEXT", usercontext.UserContext{
				UserID:             user.ID,
				Email:              user.Email,
				IsLoggedIn:         true,
				Plan:               user.PlanKey,
				SubscriptionStatus: user.SubscriptionStatus,
			})
		}
		return c.Next()
	}
}
