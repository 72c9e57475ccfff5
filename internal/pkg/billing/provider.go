package billing

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/ManuelReschke/Offertly/internal/pkg/env"
)

// Provider is the payment provider surface this core consumes. All getters
// return canonical provider-side objects; none of them trusts client input.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
}

type stripeProvider struct{}

// NewStripeProviderFromEnv configures the Stripe SDK from the environment.
// The SDK key is process-global, matching how the SDK is designed to be used.
func NewStripeProviderFromEnv() (Provider, error) {
	key := env.GetEnv("STRIPE_SECRET_KEY", "")
	if key == "" {
		return nil, &ConfigError{Missing: "STRIPE_SECRET_KEY"}
	}
	stripe.Key = key
	return &stripeProvider{}, nil
}

func (s *stripeProvider) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(p.SuccessURL),
		CancelURL:           stripe.String(p.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := session.New(params)
	if err != nil {
		return nil, &ProviderError{Op: "create checkout session", Err: err}
	}
	return mapCheckoutSession(cs), nil
}

func (s *stripeProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := session.Get(id, params)
	if err != nil {
		return nil, &ProviderError{Op: "retrieve checkout session", Err: err}
	}
	return mapCheckoutSession(cs), nil
}

func (s *stripeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(id, params)
	if err != nil {
		return nil, &ProviderError{Op: "retrieve subscription", Err: err}
	}

	out := &Subscription{
		ID:     sub.ID,
		Status: strings.ToLower(string(sub.Status)),
	}
	if sub.Customer != nil {
		out.CustomerRef = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out, nil
}

func (s *stripeProvider) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := customer.Get(id, params)
	if err != nil {
		return nil, &ProviderError{Op: "retrieve customer", Err: err}
	}
	return &Customer{ID: cust.ID, Email: cust.Email}, nil
}

func mapCheckoutSession(cs *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       cs.ID,
		URL:      cs.URL,
		Metadata: cs.Metadata,
	}
	if cs.Customer != nil {
		out.CustomerRef = cs.Customer.ID
	}
	if cs.Subscription != nil {
		out.SubscriptionRef = cs.Subscription.ID
	}
	return out
}
