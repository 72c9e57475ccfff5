package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

func testApp(ctx *usercontext.UserContext, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if ctx != nil {
			c.Locals("USER_CONTEXT", *ctx)
		}
		return c.Next()
	})
	chain := append(handlers, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/", chain...)
	return app
}

func TestRequireAuth(t *testing.T) {
	app := testApp(nil, RequireAuth)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = testApp(&usercontext.UserContext{UserID: 1, IsLoggedIn: true}, RequireAuth)
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireEntitled(t *testing.T) {
	tests := []struct {
		name   string
		ctx    *usercontext.UserContext
		status int
	}{
		{name: "anonymous", ctx: nil, status: fiber.StatusUnauthorized},
		{
			name:   "logged in without subscription",
			ctx:    &usercontext.UserContext{UserID: 1, IsLoggedIn: true},
			status: fiber.StatusPaymentRequired,
		},
		{
			name:   "past due",
			ctx:    &usercontext.UserContext{UserID: 1, IsLoggedIn: true, SubscriptionStatus: models.SubStatusPastDue},
			status: fiber.StatusPaymentRequired,
		},
		{
			name:   "active",
			ctx:    &usercontext.UserContext{UserID: 1, IsLoggedIn: true, SubscriptionStatus: models.SubStatusActive},
			status: fiber.StatusOK,
		},
		{
			name:   "trialing",
			ctx:    &usercontext.UserContext{UserID: 1, IsLoggedIn: true, SubscriptionStatus: models.SubStatusTrialing},
			status: fiber.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp(tt.ctx, RequireEntitled)
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
