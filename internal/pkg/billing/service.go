package billing

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/env"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
)

// Service reconciles the locally cached billing state with the payment
// provider. All three write paths (checkout return, notification, session
// sync) funnel through the same partial upsert, so their interleaving is
// safe: each re-derives state from the provider and only writes the fields
// it has evidence for.
type Service struct {
	repo     Repository
	provider Provider
	catalog  *plans.Catalog
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, provider Provider, catalog *plans.Catalog) *Service {
	return &Service{repo: repo, provider: provider, catalog: catalog}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider Provider) *Service {
	return NewService(NewRepository(db), provider, plans.Get())
}

// StartCheckout starts an external payment flow for the user and plan and
// returns the provider-hosted redirect URL. Unmet preconditions surface as
// ConfigError; nothing is mutated locally.
func (s *Service) StartCheckout(ctx context.Context, user *models.User, planKey string) (string, error) {
	plan, ok := s.catalog.Lookup(planKey)
	if !ok {
		return "", &ConfigError{Missing: "plan " + planKey}
	}
	if plan.PriceID == "" {
		return "", &ConfigError{Missing: "price reference for plan " + plan.Key}
	}
	base := strings.TrimRight(env.GetEnv("APP_BASE_URL", ""), "/")
	if base == "" {
		return "", &ConfigError{Missing: "APP_BASE_URL"}
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		PriceID:       plan.PriceID,
		CustomerEmail: user.Email,
		SuccessURL:    base + "/billing/return?success=1&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/billing/return?canceled=1",
		Metadata: map[string]string{
			"user_id":  strconv.FormatUint(uint64(user.ID), 10),
			"plan_key": plan.Key,
			"app":      "Offertly",
		},
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// VerifyCheckoutReturn re-derives billing truth after the browser came back
// from payment. The success marker in the URL is never trusted: the session
// is re-fetched from the provider and the canonical refs and status are
// upserted. Calling this again with the same session reference converges to
// the same row, so page refreshes are harmless.
func (s *Service) VerifyCheckoutReturn(ctx context.Context, userID uint, sessionID string) error {
	sess, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}

	var up Update
	if sess.CustomerRef != "" {
		up.CustomerRef = &sess.CustomerRef
	}
	if sess.SubscriptionRef != "" {
		up.SubscriptionRef = &sess.SubscriptionRef
	}
	if key := sess.Metadata["plan_key"]; key != "" {
		if plan, ok := s.catalog.Lookup(key); ok {
			up.PlanKey = &plan.Key
		} else {
			log.Warnf("[Billing] checkout session %s carries unknown plan_key %q, ignoring", sess.ID, key)
		}
	}
	if sess.SubscriptionRef != "" {
		sub, err := s.provider.GetSubscription(ctx, sess.SubscriptionRef)
		if err != nil {
			return err
		}
		status := strings.ToLower(sub.Status)
		up.Status = &status
	}

	return s.repo.ApplyUpdate(userID, up)
}

// ProcessNotification handles an out-of-band billing signal. The target
// account is resolved by normalized email match against the provider
// customer, deliberately not by the user id embedded in checkout metadata;
// a notification whose email matches no local account fails with
// ErrIdentityNotFound and mutates nothing.
func (s *Service) ProcessNotification(ctx context.Context, in NotificationInput) (*NotificationResult, error) {
	subRef := strings.TrimSpace(in.SubscriptionRef)
	if subRef == "" && strings.TrimSpace(in.SessionRef) != "" {
		sess, err := s.provider.GetCheckoutSession(ctx, strings.TrimSpace(in.SessionRef))
		if err != nil {
			return nil, err
		}
		subRef = sess.SubscriptionRef
	}
	if subRef == "" {
		return nil, ErrMissingReference
	}

	sub, err := s.provider.GetSubscription(ctx, subRef)
	if err != nil {
		return nil, err
	}
	status := strings.ToLower(sub.Status)

	planKey := ""
	if plan, ok := s.catalog.ByPriceID(sub.PriceID); ok {
		planKey = plan.Key
	}

	cust, err := s.provider.GetCustomer(ctx, sub.CustomerRef)
	if err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(cust.Email)
	if email == "" {
		return nil, ErrIdentityNotFound
	}

	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	up := Update{
		SubscriptionRef: &subRef,
		Status:          &status,
	}
	if sub.CustomerRef != "" {
		up.CustomerRef = &sub.CustomerRef
	}
	if planKey != "" {
		up.PlanKey = &planKey
	}
	if err := s.repo.ApplyUpdate(user.ID, up); err != nil {
		return nil, err
	}

	return &NotificationResult{Email: email, Status: status, PlanKey: planKey}, nil
}

// SyncSubscriptionStatus opportunistically refreshes the cached status from
// the provider. It runs on session entry for every logged-in user, so
// provider failures are logged and swallowed: last-known state is better
// than blocking the user on a flaky provider.
func (s *Service) SyncSubscriptionStatus(ctx context.Context, user *models.User) {
	if user == nil || !user.HasBillingRef() {
		return
	}
	sub, err := s.provider.GetSubscription(ctx, user.StripeSubscriptionID)
	if err != nil {
		log.Warnf("[Billing] status sync for user %d failed, keeping cached state: %v", user.ID, err)
		return
	}
	status := strings.ToLower(sub.Status)
	if err := s.repo.ApplyUpdate(user.ID, Update{Status: &status}); err != nil {
		log.Warnf("[Billing] status sync for user %d could not persist: %v", user.ID, err)
	}
}
