package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Offertly/internal/pkg/database"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
)

// HandleLanding is the entry point: app info plus the plan overview.
func HandleLanding(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"app":       "Offertly",
		"message":   "AI-assisted quotes for construction and plumbing businesses",
		"plans":     planList(),
		"logged_in": isLoggedIn(c),
	})
}

// HandlePlans lists the plan catalog.
func HandlePlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": planList()})
}

// HandleHealthz reports process and database health.
func HandleHealthz(c *fiber.Ctx) error {
	dbStatus := "ok"
	db := database.GetDB()
	if db == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"database": dbStatus,
	})
}

func planList() []fiber.Map {
	all := plans.Get().All()
	out := make([]fiber.Map, 0, len(all))
	for _, p := range all {
		out = append(out, fiber.Map{
			"key":           p.Key,
			"label":         p.Label,
			"monthly_limit": p.MonthlyLimit,
		})
	}
	return out
}
