package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Offertly/app/repository"
	"github.com/ManuelReschke/Offertly/internal/pkg/entitlements"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

// HandleUserAccount returns account information for the authenticated user:
// profile, billing state, entitlement and current month's usage.
func HandleUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	account, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	used, plan, err := usageMeter.Usage(account.ID, account.PlanKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load usage"})
	}

	remaining := int64(plan.MonthlyLimit) - used
	if remaining < 0 {
		remaining = 0
	}

	return c.JSON(fiber.Map{
		"id":                  account.ID,
		"email":               account.Email,
		"created_at":          account.CreatedAt.UTC().Format(time.RFC3339),
		"plan":                plan.Key,
		"plan_label":          plan.Label,
		"subscription_status": account.SubscriptionStatus,
		"entitled":            entitlements.Entitled(account.SubscriptionStatus),
		"usage": fiber.Map{
			"used":      used,
			"limit":     plan.MonthlyLimit,
			"remaining": remaining,
		},
	})
}
