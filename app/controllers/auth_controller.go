package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/app/repository"
	"github.com/ManuelReschke/Offertly/internal/pkg/session"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

type registerRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// HandleAuthRegister creates a new account. Validation problems come back as
// 422 with one message per field so a form can attach them to its inputs.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "message": "Could not parse request body",
		})
	}

	fields := fiber.Map{}
	if req.Password != req.PasswordConfirm {
		fields["password_confirm"] = "Passwords do not match"
	}

	user, err := models.CreateUser(req.Email, req.Password)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Email":
					fields["email"] = "Please enter a valid email address"
				case "Password":
					fields["password"] = "Password must be at least 8 characters"
				}
			}
		} else {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error", "message": "Could not create account",
			})
		}
	}
	if len(fields) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "fields": fields,
		})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	exists, err := repo.EmailExists(user.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not create account",
		})
	}
	if exists {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "fields": fiber.Map{"email": "This email is already registered"},
		})
	}

	if err := repo.Create(user); err != nil {
		// unique index on email closes the check-then-create race
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "validation_failed", "fields": fiber.Map{"email": "This email is already registered"},
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not create account",
		})
	}

	if err := startSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": fmt.Sprintf("account created but login failed: %s", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"plan":  user.PlanKey,
	})
}

// HandleAuthLogin authenticates an existing account.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "message": "Could not parse request body",
		})
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Wrong email or password",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "There is a problem with the login process",
		})
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Wrong email or password",
		})
	}

	if err := startSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": fmt.Sprintf("something went wrong: %s", err),
		})
	}

	return c.JSON(fiber.Map{
		"id":                  user.ID,
		"email":               user.Email,
		"plan":                user.PlanKey,
		"subscription_status": user.SubscriptionStatus,
	})
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// startSession writes a fresh authenticated session for the user. A new
// session also means the next request runs the once-per-session billing sync.
func startSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUserEmail, user.Email)
	sess.Delete(usercontext.KeyBillingSynced)
	return sess.Save()
}
