package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Offertly/app/repository"
	"github.com/ManuelReschke/Offertly/internal/pkg/billing"
	"github.com/ManuelReschke/Offertly/internal/pkg/env"
	"github.com/ManuelReschke/Offertly/internal/pkg/session"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

var billingService *billing.Service

// SetBillingService wires the billing service used by the billing handlers.
func SetBillingService(svc *billing.Service) {
	billingService = svc
}

type checkoutRequest struct {
	PlanKey string `json:"plan_key" form:"plan_key"`
}

// HandleBillingCheckout starts the external payment flow and returns the
// provider-hosted redirect URL.
func HandleBillingCheckout(c *fiber.Ctx) error {
	if billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "billing_unavailable", "message": "Billing is not configured",
		})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "message": "Could not parse request body",
		})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load user",
		})
	}

	url, err := billingService.StartCheckout(c.Context(), user, req.PlanKey)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"checkout_url": url})
}

// HandleBillingReturn lands the browser after the external payment flow. The
// success/cancel markers in the URL are presentation only; the actual billing
// state is re-derived from the provider. The redirect to /account drops the
// one-shot markers so a refresh cannot replay them.
func HandleBillingReturn(c *fiber.Ctx) error {
	if c.Query("canceled") != "" {
		flash.WithInfo(c, fiber.Map{
			"type": "info", "message": "Checkout canceled, nothing changed.",
		})
		return c.Redirect("/account", fiber.StatusSeeOther)
	}

	sessionID := c.Query("session_id")
	if billingService == nil || sessionID == "" {
		return c.Redirect("/account", fiber.StatusSeeOther)
	}

	if err := billingService.VerifyCheckoutReturn(c.Context(), usercontext.GetUserID(c), sessionID); err != nil {
		flash.WithError(c, fiber.Map{
			"type": "error", "message": "We could not confirm your payment yet. Your subscription will update shortly.",
		})
		return c.Redirect("/account", fiber.StatusSeeOther)
	}

	flash.WithSuccess(c, fiber.Map{
		"type": "success", "message": "Subscription updated. Welcome aboard!",
	})
	return c.Redirect("/account", fiber.StatusSeeOther)
}

// HandleBillingNotify is the token-gated notification endpoint. It accepts
// GET and POST with ?token=...&sub=... or ?session_id=... and reconciles the
// referenced subscription into the local account, matched by customer email.
func HandleBillingNotify(c *fiber.Ctx) error {
	if billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "billing_unavailable", "message": "Billing is not configured",
		})
	}

	if !billing.VerifyNotificationToken(c.Query("token"), env.GetEnv("APP_WEBHOOK_TOKEN", "")) {
		log.Warnf("[Billing] rejected notification with bad token from %s", GetClientIP(c))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Invalid notification token",
		})
	}

	result, err := billingService.ProcessNotification(c.Context(), billing.NotificationInput{
		SubscriptionRef: c.Query("sub"),
		SessionRef:      c.Query("session_id"),
	})
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"email":    result.Email,
		"status":   result.Status,
		"plan_key": result.PlanKey,
	})
}

// HandleBillingResync forces a provider sync for the logged-in user and
// returns the refreshed state.
func HandleBillingResync(c *fiber.Ctx) error {
	if billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "billing_unavailable", "message": "Billing is not configured",
		})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load user",
		})
	}

	billingService.SyncSubscriptionStatus(c.Context(), user)
	_ = session.SetSessionValue(c, usercontext.KeyBillingSynced, "1")

	user, err = repo.GetByID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not reload user",
		})
	}
	return c.JSON(fiber.Map{
		"subscription_status": user.SubscriptionStatus,
		"plan_key":            user.PlanKey,
	})
}

// billingErrorResponse maps billing errors onto HTTP statuses: configuration
// problems are the operator's fault (422), provider trouble is upstream
// (502), an unmatchable notification is 404.
func billingErrorResponse(c *fiber.Ctx, err error) error {
	var cfgErr *billing.ConfigError
	if errors.As(err, &cfgErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "config_error", "message": cfgErr.Error(),
		})
	}
	if errors.Is(err, billing.ErrMissingReference) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "missing_reference", "message": "Neither a subscription nor a checkout session reference was supplied",
		})
	}
	if errors.Is(err, billing.ErrIdentityNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "identity_not_found", "message": "No local account matches the billing customer",
		})
	}
	var provErr *billing.ProviderError
	if errors.As(err, &provErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "provider_error", "message": provErr.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal_server_error", "message": err.Error(),
	})
}
