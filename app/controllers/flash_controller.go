package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// HandleFlashGet returns and consumes the pending flash message, if any.
// The billing return redirect parks its outcome here for the next page load.
func HandleFlashGet(c *fiber.Ctx) error {
	fm := flash.Get(c)
	if len(fm) == 0 {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fm)
}
