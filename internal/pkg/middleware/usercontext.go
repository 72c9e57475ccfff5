package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/database"
	"github.com/ManuelReschke/Offertly/internal/pkg/session"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// The billing fields (plan, subscription status) are read from the user row
// on each request so entitlement checks never act on a stale session copy.
func UserContextMiddleware(c *fiber.Ctx) error {
	anonymous := func() error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		return anonymous()
	}
	id, ok := userID.(uint)
	if !ok {
		return anonymous()
	}

	db := database.GetDB()
	if db == nil {
		return anonymous()
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		// session points at a user that no longer exists
		return anonymous()
	}

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:             user.ID,
		Email:              user.Email,
		IsLoggedIn:         true,
		Plan:               user.PlanKey,
		SubscriptionStatus: user.SubscriptionStatus,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, user.ID)
	c.Locals(usercontext.KeyUserEmail, user.Email)

	return c.Next()
}
