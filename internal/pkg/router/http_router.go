package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Offertly/app/controllers"
	"github.com/ManuelReschke/Offertly/app/repository"
	"github.com/ManuelReschke/Offertly/internal/pkg/billing"
	"github.com/ManuelReschke/Offertly/internal/pkg/database"
	"github.com/ManuelReschke/Offertly/internal/pkg/docarchive"
	"github.com/ManuelReschke/Offertly/internal/pkg/middleware"
	"github.com/ManuelReschke/Offertly/internal/pkg/offer"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
	"github.com/ManuelReschke/Offertly/internal/pkg/quota"
	"github.com/ManuelReschke/Offertly/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	billingSvc := setupServices()

	// Apply UserContext middleware globally as first middleware, then the
	// once-per-session billing sync on top of it
	app.Use(middleware.UserContextMiddleware)
	app.Use(middleware.NewBillingSync(billingSvc))

	h.registerPublicRoutes(app)
	h.registerWebRoutes(app)
}

// setupServices wires the repositories, the billing service and the offer
// pipeline into the controllers. A missing provider credential disables
// billing but never prevents startup.
func setupServices() *billing.Service {
	repository.InitializeFactory(database.GetDB())

	var billingSvc *billing.Service
	provider, err := billing.NewStripeProviderFromEnv()
	if err != nil {
		log.Warnf("[Router] billing disabled: %v", err)
	} else {
		billingSvc = billing.NewServiceFromDB(database.GetDB(), provider)
	}
	controllers.SetBillingService(billingSvc)

	var ai offer.TextGenerator
	if client := offer.NewOpenAIClientFromEnv(); client != nil {
		ai = client
	} else {
		log.Info("[Router] no AI credential configured, quotes use the deterministic template")
	}

	archive, err := docarchive.NewClientFromEnv()
	if err != nil {
		log.Warnf("[Router] document archive disabled: %v", err)
		archive = nil
	}

	controllers.SetOfferDependencies(
		offer.NewGenerator(ai),
		quota.NewMeter(quota.NewLedger(database.GetDB()), plans.Get()),
		archive,
	)

	return billingSvc
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context
	// All user information is available via usercontext.GetUserContext(c)
	return c.Next()
}
